// Command icn-node runs one peer-coordination node: a websocket peer mesh,
// replicated federation state, a simulated workload scheduler, and an HTTP
// control API.
//
// Usage:
//
//	icn-node serve                     # start the node
//	icn-node serve --config node.yaml  # with a config file
//	icn-node version                   # show version information
//	icn-node health                    # probe a running node
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/icn-network/icn-node/config"
	"github.com/icn-network/icn-node/internal/logging"
	"github.com/icn-network/icn-node/node"
)

// Build-time injected.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "version":
		printVersion()
	case "health":
		runHealthCheck(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	logFormat := fs.String("log-format", "json", "Log format: json or console")
	fs.Parse(args)

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, *logFormat)
	defer logger.Sync()

	logger.Info("starting icn-node",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("node_type", string(cfg.NodeType)),
		zap.String("cooperative_id", cfg.CooperativeID),
	)

	n, err := node.New(node.Options{
		Config:  cfg,
		Logger:  logger,
		Version: Version,
	})
	if err != nil {
		logger.Fatal("failed to assemble node", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := n.Run(ctx); err != nil {
		logger.Fatal("node exited with error", zap.Error(err))
	}
}

func runHealthCheck(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:8082", "API address")
	fs.Parse(args)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*addr + "/api/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: status %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("OK")
}

func printVersion() {
	fmt.Printf("icn-node %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`icn-node - peer coordination node

Usage:
  icn-node <command> [options]

Commands:
  serve     Start the node
  version   Show version information
  health    Check node health
  help      Show this help message

Options for 'serve':
  --config <path>       Path to configuration file (YAML)
  --log-format <fmt>    Log format: json or console

Options for 'health':
  --addr <url>          API base URL (default http://localhost:8082)

Configuration environment variables:
  NODE_TYPE         bootstrap | regular | validator
  NODE_PORT         Peer websocket port
  API_PORT          HTTP API port
  BOOTSTRAP_NODES   JSON array of peer websocket URLs
  COOPERATIVE_ID    Cooperative identifier
  COOPERATIVE_TIER  Cooperative membership tier
  LOG_LEVEL         debug | info | warn | error

Examples:
  icn-node serve
  icn-node serve --config /etc/icn/node.yaml
  NODE_TYPE=bootstrap NODE_PORT=9000 API_PORT=8082 icn-node serve
  icn-node health --addr http://localhost:8082`)
}
