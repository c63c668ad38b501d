package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"stylestudio/internal/cli"
)

func main() {
	_ = godotenv.Load()

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "stylectl:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
