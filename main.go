package main

import "github.com/agentic-research/mggraph/cmd"

func main() {
	cmd.Execute()
}
