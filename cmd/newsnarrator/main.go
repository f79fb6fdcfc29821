package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"NewsNarrator/internal/app"
	"NewsNarrator/internal/config"
	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/logging"
	"NewsNarrator/internal/tui"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config YAML (defaults to $NEWSNARRATOR_CONFIG)")
	topic := flag.String("topic", "", "Generate one story for this topic and exit")
	counts := flag.Bool("counts", false, "Print stored record counts per category and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	interactive := *topic == "" && !*counts
	logger, logCloser := logging.NewWithOptions(logging.Options{
		Level: cfg.Logging.Level,
		File:  cfg.Logging.File,
		Quiet: interactive,
	})
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application start failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	switch {
	case *counts:
		n, err := application.Counts(ctx)
		if err != nil {
			logger.Error("count records", "error", err)
			os.Exit(1)
		}
		for _, c := range domain.Categories() {
			fmt.Printf("%s\t%d\n", c, n[c])
		}
	case *topic != "":
		fmt.Println(application.Submit(ctx, *topic))
	default:
		if _, err := tea.NewProgram(tui.New(ctx, application), tea.WithAltScreen()).Run(); err != nil {
			logger.Error("tui stopped", "error", err)
			os.Exit(1)
		}
	}
}
