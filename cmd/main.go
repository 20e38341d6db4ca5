package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/RishiKendai/plagcheck/internal/cli"
	"github.com/RishiKendai/plagcheck/internal/configs/env"
)

func main() {
	// optional; system environment variables still apply
	_ = env.LoadEnv()

	if err := cli.Execute(); err != nil {
		if errors.Is(err, cli.ErrPlagiarismDetected) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
