package main

import "podsh/cmd"

func main() {
	cmd.Execute()
}
