// Command wbclient-merge folds one duplicate author item into another,
// reconciling the namespaced wiki pages before the graph merge. The
// survivor is chosen by label length, so the argument order only
// suggests a direction.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/graphport/wbclient/internal/config"
	"github.com/graphport/wbclient/internal/dedupe"
	"github.com/graphport/wbclient/internal/wikibase"
	"github.com/graphport/wbclient/pkg/types"
)

var (
	configPath = flag.String("config", "", "Path to YAML config file (optional, uses env vars by default)")
	namespace  = flag.String("namespace", dedupe.DefaultNamespace, "Wiki namespace holding the per-author pages")
	debug      = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()
	if flag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <source-id> <target-id>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	_ = godotenv.Load()

	level := log.InfoLevel
	if *debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})

	source, err := types.ParseLocalID(flag.Arg(0))
	if err != nil {
		logger.Fatal("bad source id", "err", err)
	}
	target, err := types.ParseLocalID(flag.Arg(1))
	if err != nil {
		logger.Fatal("bad target id", "err", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("loading configuration", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wiki, err := wikibase.New(ctx, wikibase.Config{
		APIURL:       cfg.Wiki.APIURL,
		SPARQLURL:    cfg.Wiki.SPARQLURL,
		SPARQLPrefix: cfg.Wiki.SPARQLPrefix,
		Username:     cfg.Wiki.Username,
		Password:     cfg.Wiki.Password,
		EditsPerSec:  cfg.Wiki.EditsPerSec,
		EditBurst:    cfg.Wiki.EditBurst,
	})
	if err != nil {
		logger.Fatal("connecting to wiki", "err", err)
	}

	d := dedupe.New(wiki, wiki, dedupe.WithNamespace(*namespace))

	record, err := d.MergeAuthors(ctx, source, target)
	if err != nil {
		logger.Fatal("merge failed", "source", source, "target", target, "err", err)
	}

	logger.Info("merged", "source", record.Source, "target", record.Target)
	fmt.Println(record.Survivor)
}

func loadConfig() (*config.Config, error) {
	if *configPath != "" {
		return config.LoadFile(*configPath)
	}
	return config.Load()
}
