package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ShayCichocki/switchboard/internal/contextmgr"
	"github.com/ShayCichocki/switchboard/internal/llm"
	"github.com/ShayCichocki/switchboard/internal/logger"
	"github.com/ShayCichocki/switchboard/internal/orchestrator"
)

const helpText = `Commands:
  /agents   list available agents
  /context  show the current context window
  /clear    clear the session history
  /save     save the session now
  /help     show this help
  /exit     save and quit (also /quit)

Anything else is sent to the agents. Ctrl+C cancels a running request.`

// shell is the line-oriented interactive loop over one session.
type shell struct {
	app    *app
	sess   *contextmgr.Session
	render *renderer
	in     io.Reader
	out    io.Writer
	sigs   chan os.Signal

	// terminated is set when SIGTERM arrives during a request.
	terminated bool
}

func (s *shell) run(ctx context.Context) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	s.sigs = sigs

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Fprintln(s.out, titleStyle.Render("switchboard")+mutedStyle.Render(" session "+s.sess.ID()))
	fmt.Fprintln(s.out, mutedStyle.Render("Type /help for commands."))

	for !s.terminated {
		fmt.Fprint(s.out, promptStyle.Render("> "))

		var line string
		select {
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.out)
				return s.finish()
			}
			line = strings.TrimSpace(l)
		case <-sigs:
			fmt.Fprintln(s.out)
			return s.finish()
		case <-ctx.Done():
			return s.finish()
		}

		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			quit, err := s.command(ctx, line)
			if err != nil {
				fmt.Fprintln(s.out, errorStyle.Render(err.Error()))
			}
			if quit {
				return s.finish()
			}
			continue
		}

		if err := s.ask(ctx, line); err != nil {
			return errors.Join(err, s.finish())
		}
	}
	return s.finish()
}

// ask sends one request, cancelling it on SIGINT or SIGTERM.
func (s *shell) ask(ctx context.Context, request string) error {
	rctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		resp *orchestrator.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := s.app.orchestrator.Handle(rctx, request, s.sess)
		done <- result{resp: resp, err: err}
	}()

	for {
		select {
		case res := <-done:
			if res.err != nil {
				return res.err
			}
			s.render.response(res.resp)
			return nil
		case sig := <-s.sigs:
			logger.Debug("cancelling request", "session", s.sess.ID(), "signal", sig)
			if sig == syscall.SIGTERM {
				s.terminated = true
			}
			cancel()
		}
	}
}

// command runs a slash command and reports whether the loop should exit.
func (s *shell) command(ctx context.Context, line string) (bool, error) {
	name := strings.ToLower(strings.Fields(line)[0])
	switch name {
	case "/exit", "/quit":
		return true, nil
	case "/help":
		fmt.Fprintln(s.out, helpText)
	case "/agents":
		s.render.agents(s.app.registry.All())
	case "/context":
		s.render.context(s.sess.GetContext(ctx), len(s.sess.Turns()))
		s.render.usage(llm.UsageOf(s.app.llm))
	case "/clear":
		s.sess.Clear()
		if err := s.app.manager.Save(ctx, s.sess); err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, mutedStyle.Render("Session history cleared."))
	case "/save":
		if err := s.app.manager.Save(ctx, s.sess); err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, mutedStyle.Render("Session saved."))
	default:
		return false, fmt.Errorf("unknown command %s (try /help)", name)
	}
	return false, nil
}

// finish closes the session with its final summary and saves it.
func (s *shell) finish() error {
	ctx, cancel := finishContext()
	defer cancel()
	if err := s.app.manager.Finish(ctx, s.sess); err != nil {
		return err
	}
	printSessionHint(s.out, s.sess.ID())
	return nil
}
