package main

import "github.com/skiffsh/skiff/cmd"

func main() {
	cmd.Execute()
}
