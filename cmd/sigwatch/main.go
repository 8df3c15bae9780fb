package main

import "github.com/vietddude/sigwatch/internal/cli"

func main() {
	cli.Execute()
}
