// Command bwsproxy serves Bitwarden Secrets Manager secrets over plain REST.
//
// Usage:
//
//	bwsproxy [listen_address] [listen_port] [flags]
//
// Each request carries a machine-account access token as its bearer
// credential; see the gateway package for the HTTP surface.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s error: %v\n", programName, err)
		os.Exit(1)
	}
}
