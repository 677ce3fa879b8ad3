package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jaminalder/blockblast/internal/app"
	"github.com/jaminalder/blockblast/internal/config"
	"github.com/jaminalder/blockblast/internal/records"
	"github.com/jaminalder/blockblast/internal/web"
)

func main() {
	cfgPath := flag.String("config", "", "config file (default: XDG config dir)")
	addr := flag.String("addr", "", "listen address (overrides config)")
	recordsPath := flag.String("records", "", "record file (overrides config)")
	levelStr := flag.String("log-level", "", "debug|info|warn|error (overrides config)")
	seed := flag.Uint64("seed", 0, "piece generator seed, 0 for random")
	saveCfg := flag.Bool("save-config", false, "write the effective config and exit")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *cfgPath != "" {
		cfg, err = config.LoadFile(*cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *recordsPath != "" {
		cfg.RecordsPath = *recordsPath
	}
	if *levelStr != "" {
		cfg.LogLevel = *levelStr
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	if *saveCfg {
		if err := saveConfig(cfg, *cfgPath); err != nil {
			slog.Error("save config", "err", err)
			os.Exit(1)
		}
		return
	}

	lvl, ok := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	if !ok {
		logger.Warn("unknown log level, using info", "level", cfg.LogLevel)
	}

	path, err := cfg.ResolveRecordsPath()
	if err != nil {
		logger.Error("records path", "err", err)
		os.Exit(1)
	}
	store := records.NewStore(path, cfg.RecordLimit, logger)

	svc := app.NewService(app.Options{
		Layout:  cfg.Layout,
		Seed:    cfg.Seed,
		Records: store,
		Logger:  logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           web.NewServer(svc, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("listening", "addr", cfg.Addr, "records", path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

// saveConfig writes cfg to path, or to the XDG config file when path is empty.
func saveConfig(cfg *config.Config, path string) error {
	if path != "" {
		return cfg.SaveFile(path)
	}
	path, err := cfg.Save()
	if err != nil {
		return err
	}
	fmt.Println("config written to", path)
	return nil
}
