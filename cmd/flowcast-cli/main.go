package main

import "flowcast/internal/cli"

func main() {
	cli.Execute()
}
