package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/JaimeStill/brainquery/app"
	"github.com/JaimeStill/brainquery/internal/config"
	"github.com/JaimeStill/brainquery/internal/logger"
	"github.com/JaimeStill/brainquery/internal/types"
)

func main() {
	var (
		query        = flag.String("query", "", "query text to answer against the current brain")
		model        = flag.String("model", "claude-sonnet-4", "target model for context-window sizing")
		mode         = flag.String("mode", "full", "response mode: quick|full|expert|dive|report|grounded|executive")
		sessionID    = flag.String("session", "", "follow-up session id, empty disables session tracking")
		pgsSessionID = flag.String("pgs-session", "", "PGS session id, empty disables partitioned sweep routing")
		pgsMode      = flag.String("pgs-mode", "full", "PGS session mode: full|continue|targeted")
		baseAnswer   = flag.String("base-answer", "", "prior answer to compress; only read when --mode=executive")
		help         = flag.Bool("help", false, "show help information")
	)
	flag.Parse()

	if *help {
		fmt.Printf("brainqueryd: partitioned graph synthesis query engine\n\n")
		fmt.Printf("Usage:\n  %s --query \"...\" [flags]\n\n", os.Args[0])
		flag.PrintDefaults()
		return
	}

	if *query == "" {
		fmt.Fprintln(os.Stderr, "Error: --query is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	log := logger.Setup(&cfg.Logging)

	log.Info("starting brainqueryd",
		"brain_root", cfg.Brain.RootPath,
		"embedding_backend", cfg.EmbeddingCache.Backend,
	)

	orchestrator := app.NewOrchestrator(cfg, log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := orchestrator.RegisterServices(ctx); err != nil {
		log.Error("failed to register services", "error", err)
		os.Exit(1)
	}

	if err := orchestrator.Initialize(ctx); err != nil {
		log.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}

	if err := orchestrator.Start(ctx); err != nil {
		log.Error("failed to start services", "error", err)
		os.Exit(1)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := orchestrator.Stop(stopCtx); err != nil {
			log.Error("failed to stop services cleanly", "error", err)
		}
	}()

	opts := types.QueryOptions{
		Model:            *model,
		Mode:             types.Mode(*mode),
		IncludeConnected: true,
		UseSemantic:      true,
		SessionID:        *sessionID,
		PGSSessionID:     *pgsSessionID,
		PGSMode:          types.SessionMode(*pgsMode),
		BaseAnswer:       *baseAnswer,
	}

	result, err := orchestrator.Query(ctx, *query, opts)
	if err != nil {
		log.Error("query failed", "error", err)
		os.Exit(1)
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Error("failed to encode result", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(encoded))
}
