package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/switchboard/internal/llm"
	"github.com/ShayCichocki/switchboard/internal/orchestrator"
	"github.com/ShayCichocki/switchboard/internal/registry"
	"github.com/ShayCichocki/switchboard/pkg/models"
)

var (
	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")) // Blue

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	agentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")) // Gray

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Orange

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // Red
)

// renderer prints responses, rendering markdown when possible.
type renderer struct {
	out io.Writer
	md  *glamour.TermRenderer
}

func newRenderer(out io.Writer) *renderer {
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		md = nil
	}
	return &renderer{out: out, md: md}
}

func (r *renderer) markdown(text string) string {
	if r.md == nil || strings.TrimSpace(text) == "" {
		return text
	}
	rendered, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return rendered
}

// response prints the aggregated answer followed by its diagnostics.
func (r *renderer) response(resp *orchestrator.Response) {
	if resp.Cancelled {
		fmt.Fprintln(r.out, warnStyle.Render("Request cancelled."))
		return
	}
	fmt.Fprintln(r.out, r.markdown(resp.Text))

	line := fmt.Sprintf("agents: %s | mode: %s | intent: %s", strings.Join(resp.Agents(), ", "), resp.Mode, resp.Classification.Intent)
	fmt.Fprintln(r.out, mutedStyle.Render(line))
	for _, w := range resp.Warnings {
		fmt.Fprintln(r.out, warnStyle.Render("warning: "+w))
	}
	for _, e := range resp.Errors {
		fmt.Fprintln(r.out, errorStyle.Render(fmt.Sprintf("%s failed: %s", e.Agent, e.Reason())))
	}
}

// agents prints the agent table.
func (r *renderer) agents(descs []registry.Descriptor) {
	fmt.Fprintln(r.out, titleStyle.Render("Available agents"))
	for _, d := range descs {
		fmt.Fprintf(r.out, "  %s  %s\n", agentStyle.Render(fmt.Sprintf("%-22s", d.Name)), d.Description)
		if len(d.Tags) > 0 {
			fmt.Fprintf(r.out, "  %-22s  %s\n", "", mutedStyle.Render(strings.Join(d.Tags, ", ")))
		}
	}
}

// context prints the bounded context view.
func (r *renderer) context(view models.ContextView, turns int) {
	fmt.Fprintln(r.out, titleStyle.Render("Session "+view.SessionID))
	fmt.Fprintf(r.out, "  turns: %d, recent: %d, tokens: %d\n", turns, len(view.RecentTurns), view.Tokens)
	if view.Summary != "" {
		fmt.Fprintln(r.out, "  summary:")
		fmt.Fprintln(r.out, indent(view.Summary, "    "))
	}
	if len(view.ActiveFiles) > 0 {
		fmt.Fprintln(r.out, "  active files: "+strings.Join(view.ActiveFiles, ", "))
	}
	if view.SummarizationFailed {
		fmt.Fprintln(r.out, warnStyle.Render("  summarization failed: "+view.SummaryError))
	}
	if view.OverBudget {
		fmt.Fprintln(r.out, warnStyle.Render("  context is over the token budget"))
	}
}

// usage prints API token usage when the completer tracks it.
func (r *renderer) usage(t *llm.TokenTracker) {
	if t == nil || t.Calls() == 0 {
		return
	}
	in, out := t.Total()
	fmt.Fprintf(r.out, "  api usage: %d calls, %d input / %d output tokens\n", t.Calls(), in, out)
}

// event prints an orchestrator event in verbose mode.
func (r *renderer) event(ev orchestrator.Event) {
	parts := []string{string(ev.Type)}
	if ev.Agent != "" {
		parts = append(parts, ev.Agent)
	}
	if ev.Message != "" {
		parts = append(parts, ev.Message)
	}
	if ev.Duration > 0 {
		parts = append(parts, ev.Duration.Round(time.Millisecond).String())
	}
	if ev.Error != nil {
		parts = append(parts, "error: "+ev.Error.Error())
	}
	fmt.Fprintln(r.out, mutedStyle.Render("· "+strings.Join(parts, " | ")))
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
