package main

import "agristat/internal/cli"

func main() {
	cli.Execute()
}
