package main

import (
	"fmt"
	"log"
	"os"

	"github.com/wjojarth123/uicheck/internal/config"
	"github.com/wjojarth123/uicheck/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("uicheck-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("uicheck-mcp - MCP server for UI layout checks")
			fmt.Println()
			fmt.Println("Usage: uicheck-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  UICHECK_LOG_LEVEL=debug    Enable debug logging")
			fmt.Println("  UICHECK_CONFIG=<path>      YAML settings used as the default for every call")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	debug := os.Getenv("UICHECK_LOG_LEVEL") == "debug"
	if debug {
		log.Printf("uicheck MCP server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	cfg := config.Default()
	if path := os.Getenv("UICHECK_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Fatalf("Failed to load settings: %v", err)
		}
		cfg = loaded
	}

	srv := server.New(cfg)
	srv.SetDebug(debug)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
