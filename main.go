package main

import "github.com/relloyd/shipetl/cmd"

func main() {
	cmd.Execute()
}
