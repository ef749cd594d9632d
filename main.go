package main

import "github.com/Fepozopo/milk/pkg/cli"

func main() {
	cli.RunCLI()
}
