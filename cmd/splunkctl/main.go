// Package main provides the entry point for the splunkctl CLI.
package main

import (
	"os"

	"github.com/fuyufjh/splunk-sdk-go/cmd/splunkctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
