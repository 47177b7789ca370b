package main

import "lead-sync/cmd"

func main() {
	cmd.Execute()
}
