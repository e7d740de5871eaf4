package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/mark3labs/casewright/internal/cli"
)

func main() {
	// CASEWRIGHT_* variables may come from a local .env
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
