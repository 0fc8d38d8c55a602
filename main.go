package main

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kkolster/unshuffle-server/internal/config"
	"github.com/kkolster/unshuffle-server/internal/httpserver"
	"github.com/kkolster/unshuffle-server/internal/identity"
	"github.com/kkolster/unshuffle-server/internal/kv"
	"github.com/kkolster/unshuffle-server/internal/service"
)

func main() {
	cfg := config.Load()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	store, err := kv.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer store.Close()

	ident := identity.NewProvider(store, cfg.JWTSecret, cfg.JWTExpiresDays)
	svc := service.New(store, ident, service.NewClock(), cfg.SegmentCount, cfg.MaxAttempts)
	srv := httpserver.New(cfg, svc, ident)

	log.Info().Str("addr", cfg.Addr).Msg("starting unshuffle-server")
	if err := srv.Start(cfg.Addr); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
