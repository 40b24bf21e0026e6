package main

import "github.com/phishguard/phishguard/cmd"

func main() {
	cmd.Execute()
}
