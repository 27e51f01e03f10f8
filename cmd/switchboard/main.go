// Command switchboard routes development requests to specialized agents.
package main

func main() {
	Execute()
}
