package main

import "github.com/livefir/hotreload/internal/cli"

func main() {
	cli.Execute()
}
