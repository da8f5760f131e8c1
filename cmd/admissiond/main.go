// Command admissiond runs the admission HTTP service: it loads the schema
// and ruleset documents named in its config file, builds the admission
// pipeline, and serves the submission and read-stub endpoints.
package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"cosmossdk.io/log"

	"github.com/blockberries/immune-core/admission"
	"github.com/blockberries/immune-core/config"
	"github.com/blockberries/immune-core/httpapi"
	"github.com/blockberries/immune-core/transport"
)

func main() {
	configPath := flag.String("config", "configs/default.yaml", "path to the service config file")
	listenAddr := flag.String("listen", ":8080", "HTTP listen address")
	flag.Parse()

	logger := log.NewLogger(os.Stdout)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	schemaDoc, err := os.ReadFile(cfg.Envelope.SchemaPath)
	if err != nil {
		logger.Error("failed to read schema", "path", cfg.Envelope.SchemaPath, "error", err)
		os.Exit(1)
	}
	rulesetDoc, err := os.ReadFile(cfg.Immune.RulesetPath)
	if err != nil {
		logger.Error("failed to read ruleset", "path", cfg.Immune.RulesetPath, "error", err)
		os.Exit(1)
	}

	pipeline, err := admission.New(schemaDoc, rulesetDoc, admission.WithLogger(logger))
	if err != nil {
		logger.Error("failed to build admission pipeline", "error", err)
		os.Exit(1)
	}

	publisher := transport.NewClient(cfg.Transport.Target, cfg.Transport.TimeoutMS)

	server := httpapi.NewServer(pipeline, publisher, cfg.Immune.QuarantineSubject, "aether.stream.core.", cfg.Envelope.MaxPayloadBytes, logger)

	httpServer := &http.Server{
		Addr:              *listenAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("admission service listening", "addr", *listenAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
