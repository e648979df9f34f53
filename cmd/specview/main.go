// File path: cmd/specview/main.go
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/calhayes/specview/internal/api"
	"github.com/calhayes/specview/internal/common"
	"github.com/calhayes/specview/internal/config"
	"github.com/calhayes/specview/internal/llm"
	"github.com/calhayes/specview/internal/sqlite"
)

func main() {
	logger := common.Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warn("specview: .env file not loaded", "error", err)
	} else {
		logger.Info("specview: environment loaded from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("specview: config load failed", "error", err)
		fmt.Println("config error:", err)
		os.Exit(1)
	}

	addr := flag.String("addr", cfg.Addr, "listen address")
	catalogPath := flag.String("catalog", cfg.CatalogPath, "path to the spec snapshot database")
	flag.Parse()

	logger.Info("specview: startup initiated", "addr", *addr, "catalog", *catalogPath)

	store, err := sqlite.Open(*catalogPath)
	if err != nil {
		logger.Error("specview: catalog open failed", "error", err)
		fmt.Println("catalog error:", err)
		os.Exit(1)
	}
	defer store.Close()

	provider := llm.NewProvider()
	logger.Info("specview: narration provider ready", "provider", provider.Name())

	server, err := api.NewServer(store, provider)
	if err != nil {
		logger.Error("specview: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	logger.Info("specview: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	reachable := *addr
	if strings.HasPrefix(reachable, ":") {
		reachable = "localhost" + reachable
	}
	logger.Info("specview: verify reachability", "suggestion", fmt.Sprintf("curl http://%s/healthz", reachable))
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("specview: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}
