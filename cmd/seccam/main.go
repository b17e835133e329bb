package main

import (
	"fmt"
	"os"

	"github.com/SecCamCloud/seccamcloud/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
