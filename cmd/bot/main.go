package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kumatsegayie/nunersupportbot/internal/config"
	"github.com/Kumatsegayie/nunersupportbot/internal/router"
	"github.com/Kumatsegayie/nunersupportbot/internal/store"
	"github.com/Kumatsegayie/nunersupportbot/internal/store/file"
	"github.com/Kumatsegayie/nunersupportbot/internal/store/postgres"
	"github.com/Kumatsegayie/nunersupportbot/internal/transport/telegram"
	"github.com/Kumatsegayie/nunersupportbot/internal/web"
	"github.com/Kumatsegayie/nunersupportbot/pkg/logger"
)

func main() {
	// config + logger
	cfg, err := config.Load()
	l := logger.New(cfg.Env)
	if err != nil {
		l.Fatal().Err(err).Msg("config load failed")
	}
	if len(cfg.AdminChatIDs) == 0 {
		l.Warn().Msg("no admin chat ids configured; tickets will not reach support")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// state backend
	var persist store.Persister
	switch cfg.StateBackend {
	case "postgres":
		pg, err := postgres.Open(ctx, cfg.DBURL)
		if err != nil {
			l.Fatal().Err(err).Msg("db connect failed")
		}
		defer pg.Close()
		persist = pg
	default:
		persist = file.New(cfg.StateFile)
	}

	snap, err := persist.Load(ctx)
	if err != nil {
		l.Warn().Err(err).Msg("state load failed, starting with empty state")
	}
	st := store.New(snap)
	l.Info().
		Int("open_tickets", len(snap.UserTickets)).
		Int("correlations", len(snap.TicketMappings)).
		Msg("state loaded")

	// transport
	bot, err := telegram.New(cfg.BotToken, cfg.AdminChatIDs, l)
	if err != nil {
		l.Fatal().Err(err).Msg("telegram connect failed")
	}

	rt := router.New(l, st, persist, bot, cfg.AdminChatIDs)

	// liveness http
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           web.Handler(l),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		l.Info().Str("addr", srv.Addr).Msg("liveness server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("liveness server error")
		}
	}()

	l.Info().Str("bot", bot.Username()).Int("admins", len(cfg.AdminChatIDs)).Msg("support bot running")
	if err := bot.Run(ctx, rt.HandleEvent); err != nil && ctx.Err() == nil {
		l.Error().Err(err).Msg("polling stopped")
		os.Exit(1)
	}

	// graceful shutdown
	sdctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(sdctx)
	l.Info().Msg("shutdown complete")
}
