// Package main provides a one-shot utility for grant key generation.
//
// It emits the ed25519 keypair that gates mutating MCP tools, and can mint
// a signed test grant for local development.
package main

import (
	"flag"
	"os"

	"github.com/louisbranch/usurper.games/internal/platform/config"
	"github.com/louisbranch/usurper.games/internal/tools/grantkey"
)

func main() {
	cfg, err := grantkey.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := grantkey.Run(cfg, os.Stdout, nil); err != nil {
		config.Exitf("generate grant key: %v", err)
	}
}
