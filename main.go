package main

import (
	"fmt"
	"os"

	"cicada/internal/api"
	"cicada/internal/chat"
	"cicada/internal/config"
	"cicada/internal/logging"
	"cicada/internal/session"
	"cicada/internal/store"
	"cicada/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.StateDir, cfg.Debug)
	defer func() { _ = logger.Sync() }()

	tokens, err := store.Open(cfg.StateDir)
	if err != nil {
		fmt.Printf("Error opening token store: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = tokens.Close() }()

	client := api.NewClient(cfg.BaseURL, tokens, logger)
	sess := session.NewController(client, tokens, logger)
	thread := chat.NewThread(client, logger)

	p := ui.NewProgram(sess, thread, logger)
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
