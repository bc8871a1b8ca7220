package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/nhle/tasktrack/internal/app"
	"github.com/nhle/tasktrack/internal/engine"
	"github.com/nhle/tasktrack/internal/model"
	"github.com/nhle/tasktrack/internal/notify"
	"github.com/nhle/tasktrack/internal/scheduler"
	"github.com/nhle/tasktrack/internal/store"
	"github.com/nhle/tasktrack/internal/theme"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the YAML config file")
	ephemeral := flag.Bool("ephemeral", false, "keep state in memory only")
	flag.Parse()

	// A .env file is optional; TASKTRACK_* variables may come from it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
			log.Fatalf("creating log directory: %v", err)
		}
		logFile, err := tea.LogToFile(cfg.Log.File, "tasktrack")
		if err != nil {
			log.Fatalf("opening log file: %v", err)
		}
		defer logFile.Close()
	}

	s, err := openStore(cfg.Storage.Path, *ephemeral)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sched *scheduler.Scheduler
	sink := notify.NewChanSink(32)
	eng, err := engine.New(ctx, s,
		engine.WithSink(notify.MultiSink{sink, notify.LogSink{}}),
		engine.WithDefaultTheme(model.ParseTheme(cfg.Display.Theme, theme.Detect())),
		engine.WithChangeHook(func(c engine.Change) {
			if sched != nil && (c.Has(engine.ChangedTasks) || c.Has(engine.ChangedRules)) {
				sched.Rearm()
			}
		}),
	)
	if err != nil {
		log.Fatalf("starting engine: %v", err)
	}

	sched = scheduler.New(eng,
		time.Duration(cfg.Scheduler.TickIntervalSec)*time.Second,
		time.Duration(cfg.Scheduler.ScanIntervalSec)*time.Second,
	)

	flash := time.Duration(cfg.Display.ScoreFlashMs) * time.Millisecond
	p := tea.NewProgram(app.New(ctx, eng, sched, sink, flash), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openStore opens the SQLite database at path, creating its directory, or an
// in-memory store when ephemeral is set.
func openStore(path string, ephemeral bool) (store.Store, error) {
	if ephemeral {
		return store.NewMemoryStore(), nil
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	return store.NewSQLiteStore(path)
}
