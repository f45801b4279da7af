// Command liftplan-mcp serves the MCP tools over stdio, forwarding every
// call to a remote LiftPlan server's REST API.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/liftplan/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	baseURL := flag.String("url", os.Getenv("LIFTPLAN_URL"), "base URL of the LiftPlan server")
	token := flag.String("token", os.Getenv("LIFTPLAN_TOKEN"), "bearer token issued by liftplan-token")
	flag.Parse()

	// stdout carries the protocol
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *baseURL == "" || *token == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftplan-mcp -url https://liftplan.example.ts.net -token TOKEN\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	client := mcp.NewHTTPClient(*baseURL, *token)
	log.Info("LiftPlan MCP bridge starting", "version", Version, "url", *baseURL)

	if err := server.ServeStdio(mcp.New(client, Version, log)); err != nil {
		log.Error("stdio server stopped", "error", err)
		os.Exit(1)
	}
}
