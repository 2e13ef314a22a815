// Package main is the entry point for the psychotropic Discord bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/x-yzt/psychotropic/internal/api"
	"github.com/x-yzt/psychotropic/internal/bot"
	"github.com/x-yzt/psychotropic/internal/config"
	"github.com/x-yzt/psychotropic/internal/game"
	"github.com/x-yzt/psychotropic/internal/game/reagents"
	"github.com/x-yzt/psychotropic/internal/game/structure"
	"github.com/x-yzt/psychotropic/internal/handler"
	"github.com/x-yzt/psychotropic/internal/provider/pnwiki"
	"github.com/x-yzt/psychotropic/internal/provider/protest"
	"github.com/x-yzt/psychotropic/internal/scoreboard"
	"github.com/x-yzt/psychotropic/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize scoreboard storage
	store := scoreboard.NewFileStore(cfg.Storage.Dir)
	scores := scoreboard.New(store, &scoreboard.Config{
		PageLen:       cfg.Scoreboard.PageLen,
		FlushInterval: cfg.Scoreboard.FlushInterval(),
	})
	if err := scores.Load(); err != nil {
		log.Fatal().Err(err).Str("path", store.Path()).Msg("Failed to load scoreboard")
	}

	// Load the spot-test dataset
	db, err := protest.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load spot-test dataset")
	}

	// Initialize the wiki client and schematic pool
	wiki := pnwiki.New(pnwiki.Config{
		Endpoint:      cfg.Wiki.Endpoint,
		ImageEndpoint: cfg.Wiki.ImageEndpoint,
		Timeout:       cfg.Wiki.Timeout,
	})

	pool := structure.NewPool(
		filepath.Join(cfg.Storage.Dir, "cache", "schematics"),
		wiki,
		cfg.Games.Structure.FetchSchematics,
	)

	// Initialize the Discord session
	session, err := discordgo.New("Bot " + cfg.Bot.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Discord session")
	}

	// Initialize the game engine
	registry := game.NewRegistry()

	svc := service.New(registry, scores, pool, db, wiki, handler.NewNotifier(session), &service.Config{
		ClueInterval:    cfg.Games.Structure.ClueInterval(),
		ReagentsTimeout: cfg.Games.Reagents.Timeout(),
		LinkTimeout:     cfg.Wiki.LinkTimeout,
		Reagents: &reagents.Config{
			MaxClues:    cfg.Games.Reagents.MaxClues,
			MinResults:  cfg.Games.Reagents.MinResults,
			MinColorful: cfg.Games.Reagents.MinColorful,
		},
	})

	// Initialize the bot
	discordBot, err := bot.New(&bot.Dependencies{
		Config:      cfg,
		Session:     session,
		GameService: svc,
		Scoreboard:  scores,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Initialize the operational API
	apiServer := api.New(cfg.HTTP.Addr, registry, scores, pool)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return discordBot.Run(gctx)
	})

	g.Go(func() error {
		// A failed warmup leaves the pool unready; reveal rounds are
		// refused with a retry hint instead of crashing the process.
		if err := pool.Populate(gctx); err != nil {
			log.Error().Err(err).Msg("Failed to populate schematic pool")
		}
		return nil
	})

	g.Go(func() error {
		return scores.Run(gctx)
	})

	g.Go(func() error {
		return apiServer.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		svc.Shutdown()
		return apiServer.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Runtime error")
	}

	log.Info().Msg("Bot stopped gracefully")
}
