package main

import "github.com/andralbr/dataEvaluation/cmd"

func main() {
	cmd.Execute()
}
