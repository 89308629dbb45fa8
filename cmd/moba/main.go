package main

import "github.com/mcoot/mobaserver/internal/cli"

func main() {
	cli.Execute()
}
