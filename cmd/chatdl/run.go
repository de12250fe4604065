package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/SuperrNaruto/chatdl/client/telegram"
	"github.com/SuperrNaruto/chatdl/config"
	"github.com/SuperrNaruto/chatdl/core/api"
	"github.com/SuperrNaruto/chatdl/core/rule"
	"github.com/SuperrNaruto/chatdl/core/scanner"
	"github.com/SuperrNaruto/chatdl/core/scheduler"
	"github.com/SuperrNaruto/chatdl/database"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the downloader",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
}

func run(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.Init(cfgPath); err != nil {
		return err
	}
	cfg := config.Cfg()

	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Warnf("Unknown log level %q, using info", cfg.LogLevel)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return err
	}
	if err := database.Init(ctx, filepath.Join(cfg.DataDir, "chatdl.db")); err != nil {
		return err
	}
	defer database.Close()

	// Runtime-mutable defaults: persisted values win over the file.
	downloadPath, err := database.GetConfigItem(ctx, database.ConfigKeyDownloadPath, cfg.DownloadDir)
	if err != nil {
		return err
	}
	template, err := database.GetConfigItem(ctx, database.ConfigKeyFilenameTemplate, cfg.FilenameTemplate)
	if err != nil {
		return err
	}
	config.LoadRuntime(downloadPath, template)

	tgc, err := telegram.NewClient(cfg.Telegram)
	if err != nil {
		return err
	}

	store := database.NewTaskStore()
	sched := scheduler.New(ctx, store, tgc, cfg.Workers)
	scn := scanner.New(tgc, store, sched, func() rule.Defaults {
		return rule.Defaults{
			SaveDir:          config.DefaultDownloadPath(),
			FilenameTemplate: config.DefaultFilenameTemplate(),
		}
	})
	svc := api.NewService(ctx, sched, scn)
	tgc.RegisterFeed(svc.HandleFileMessage)

	if err := sched.Restore(ctx); err != nil {
		return err
	}
	go func() {
		if err := scn.ScanStartup(ctx); err != nil {
			log.Errorf("Startup scans failed: %v", err)
		}
	}()

	log.Infof("chatdl running with %d workers, downloads in %s", cfg.Workers, downloadPath)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(tgc.Idle)
	g.Go(func() error {
		<-gctx.Done()
		tgc.Stop()
		return gctx.Err()
	})
	err = g.Wait()

	sched.Wait()
	log.Info("Shutdown complete")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
