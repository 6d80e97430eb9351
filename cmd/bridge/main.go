package main

import "github.com/synheart/consciousness-bridge/internal/cli"

func main() {
	cli.Execute()
}
