package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	mcpcmd "github.com/louisbranch/usurper.games/internal/cmd/mcp"
)

// main starts the MCP server on stdio. Protocol frames own stdout, so logs
// go to stderr.
func main() {
	log.SetOutput(os.Stderr)
	log.SetPrefix("[MCP] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mcpcmd.Run(ctx); err != nil {
		log.Fatalf("failed to serve MCP: %v", err)
	}
}
