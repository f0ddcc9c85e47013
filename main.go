package main

import (
	"github.com/challenge-infra/submission-runner/cmd"
)

func main() {
	cmd.Execute()
}
