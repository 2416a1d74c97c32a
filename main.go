package main

import "github.com/notargets/fvoperator/cmd"

func main() {
	cmd.Execute()
}
