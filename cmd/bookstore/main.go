package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/akazieva/bookstore/internal/config"
	"github.com/akazieva/bookstore/internal/logger"
	"github.com/akazieva/bookstore/internal/server"
	"github.com/akazieva/bookstore/internal/storage"
)

func main() {
	cfg, err := config.ReadConfig()
	if err != nil {
		log.Fatal(err)
	}
	logg := logger.Get(cfg.Debug)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
		<-c

		logg.Debug().Msg("ctx cancel; catch os signal")
		cancel()
	}()

	logg.Debug().Any("cfg", cfg).Send()
	var stor server.Storage

	if err = storage.Migrations(cfg.DBDsn, cfg.MigratePath); err != nil {
		logg.Error().Err(err).Msg("migrations failed")
	}
	stor, err = storage.NewDB(ctx, cfg.DBDsn)
	if err != nil {
		logg.Error().Err(err).Msg("connecting to data base failed")
		stor = storage.New()
	}
	serv := server.New(*cfg, stor)
	group, gCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return serv.Run(gCtx)
	})
	group.Go(func() error {
		return <-serv.ErrChan
	})
	group.Go(func() error {
		<-gCtx.Done()
		return serv.ShutdownServer()
	})

	if err = group.Wait(); err != nil {
		logg.Info().Str("stoping reason", err.Error()).Msg("server stoped")
		return
	}
	logg.Info().Msg("server stoped")
}
