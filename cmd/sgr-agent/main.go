package main

import "github.com/unki2aut/martin-sgr-agent-erc3/internal/cli"

func main() {
	cli.Execute()
}
