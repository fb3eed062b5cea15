package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etherbrian/etherbrian.github.io/internal/config"
	"github.com/etherbrian/etherbrian.github.io/internal/modules/logs"
	"github.com/etherbrian/etherbrian.github.io/internal/pkg/nativelog"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to YAML config file")
	days := flag.Int("days", 0, "Delete log files older than this many days (0 = config default)")
	dryRun := flag.Bool("dry-run", false, "Report what would be deleted without deleting")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logclean: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	dir := cfg.LogsDir
	if dir == "" {
		dir = nativelog.ResolveDir()
	}

	archiver, err := logs.NewS3Archiver(cfg.Archive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logclean: %v\n", err)
		os.Exit(1)
	}
	var logArchiver logs.Archiver
	if archiver != nil {
		logArchiver = archiver
	}

	maxAgeDays := cfg.LogMaxAgeDays
	if *days > 0 {
		maxAgeDays = *days
	}

	svc := logs.NewService(dir, logger, logArchiver)
	report, err := svc.Cleanup(time.Duration(maxAgeDays)*24*time.Hour, *dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logclean: %v\n", err)
		os.Exit(1)
	}

	mode := ""
	if report.DryRun {
		mode = " (dry run)"
	}
	fmt.Printf("scanned %d file(s) in %s%s\n", report.Scanned, dir, mode)
	fmt.Printf("deleted %d, archived %d, skipped %d, freed %d bytes\n",
		report.Deleted, report.Archived, report.Skipped, report.FreedBytes)
}
