package main

import "github.com/vietddude/hivera/internal/cli"

func main() {
	cli.Execute()
}
