package main

import (
	"fmt"
	"os"

	"compquiz-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "compquiz-service:", err)
		os.Exit(1)
	}
}
