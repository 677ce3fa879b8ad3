// blockblast-tui plays blockblast in the terminal.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/jaminalder/blockblast/internal/config"
	"github.com/jaminalder/blockblast/internal/domain"
	"github.com/jaminalder/blockblast/internal/records"
	"github.com/jaminalder/blockblast/internal/tui"
)

var (
	flagConfig  = flag.String("config", "", "config file (default: XDG config dir)")
	flagRecords = flag.String("records", "", "record file (overrides config)")
	flagSeed    = flag.Uint64("seed", 0, "piece generator seed, 0 for random")
	flagLog     = flag.String("log", "", "write debug log to this file")
	flagSave    = flag.Bool("save-config", false, "write the effective config and exit")
)

func main() {
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *flagConfig != "" {
		cfg, err = config.LoadFile(*flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *flagRecords != "" {
		cfg.RecordsPath = *flagRecords
	}
	if *flagSeed != 0 {
		cfg.Seed = *flagSeed
	}

	if *flagSave {
		if err := saveConfig(cfg, *flagConfig); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	// the screen belongs to tview, so logs go to a file or nowhere
	var out io.Writer = io.Discard
	if *flagLog != "" {
		f, err := os.OpenFile(*flagLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	lvl, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl}))

	path, err := cfg.ResolveRecordsPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	store := records.NewStore(path, cfg.RecordLimit, logger)

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	session := domain.NewSession(domain.NewGenerator(seed, cfg.Layout), cfg.Layout)
	logger.Info("starting", "seed", seed, "records", path)

	if err := tui.NewApp(tui.NewController(session, store, logger)).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

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
