package main

import "tailbreeze/internal/cli"

func main() {
	cli.Execute()
}
