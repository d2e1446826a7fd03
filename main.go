package main

import "github.com/mixtli/fetchr/cmd"

func main() {
	cmd.Execute()
}
