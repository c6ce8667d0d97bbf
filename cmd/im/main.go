package main

import (
	"fmt"
	"os"

	"github.com/bkyoung/ideaminer/internal/adapter/cli"
	"github.com/joho/godotenv"
)

func main() {
	// A local .env is a convenience for development; absence is fine.
	_ = godotenv.Load()

	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
