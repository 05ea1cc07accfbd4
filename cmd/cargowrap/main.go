package main

import "cargowrap/internal/cli"

func main() {
	cli.Execute()
}
