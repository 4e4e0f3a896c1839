package main

import "github.com/fakeyudi/tomatod/cmd"

func main() {
	cmd.Execute()
}
