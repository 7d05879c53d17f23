package main

import "github.com/andrescamacho/deliverysim-go/internal/adapters/cli"

func main() {
	cli.Execute()
}
