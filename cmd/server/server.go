package main

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/buzzboard/buzzboard-backend/internal/bank"
	"github.com/buzzboard/buzzboard-backend/internal/engine"
	"github.com/buzzboard/buzzboard-backend/internal/httpapi"
	"github.com/buzzboard/buzzboard-backend/internal/hub"
	"github.com/buzzboard/buzzboard-backend/internal/session"
)

func run(ctx context.Context, cfg *Config) error {
	logger, err := newLogger(cfg.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	b, err := bank.Load(cfg.bank)
	if err != nil {
		return err
	}
	board := b.Board()
	logger.Info("question bank loaded",
		zap.String("path", cfg.bank),
		zap.Int("categories", len(board)),
		zap.Ints("amounts", b.Amounts()),
	)

	h := hub.NewHub(ctx, logger)

	// A fixed code supports the single-shared-code deployment where every
	// screen in the room already knows where to meet.
	if cfg.gameCode != "" {
		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.EnsureSession{
			Code:  cfg.gameCode,
			State: engine.NewState(cfg.gameCode, board),
			Reply: reply,
		}
		<-reply
		logger.Info("fixed game session ready", zap.String("game_code", cfg.gameCode))
	}

	handler := httpapi.SetupRoutes(h, httpapi.Options{Board: board, PublicURL: cfg.publicURL}, logger)

	addr := net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port))
	logger.Info("listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, handler)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
