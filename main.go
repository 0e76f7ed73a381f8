package main

import "github.com/kozaktomas/id-verifier/cmd"

func main() {
	cmd.Execute()
}
