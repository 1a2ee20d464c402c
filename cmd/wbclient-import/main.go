// Command wbclient-import bulk-loads article/software associations from
// a CSV file into the knowledge graph. Each row names an article item
// and a software value; the importer attaches the configured software
// property to the article and writes it back. Row failures are logged
// and skipped so one bad row never aborts a batch.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/graphport/wbclient/internal/config"
	"github.com/graphport/wbclient/internal/engine"
	"github.com/graphport/wbclient/internal/storage"
	"github.com/graphport/wbclient/internal/storage/importerapi"
	"github.com/graphport/wbclient/internal/storage/sqldb"
	"github.com/graphport/wbclient/internal/wikibase"
	"github.com/graphport/wbclient/pkg/types"
)

var (
	configPath   = flag.String("config", "", "Path to YAML config file (optional, uses env vars by default)")
	softwareProp = flag.String("software-property", "", "Property attached per row (overrides config)")
	debug        = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <csv-url-or-path>\n", os.Args[0])
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

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("loading configuration", "err", err)
	}
	if *softwareProp != "" {
		cfg.Import.SoftwareProperty = *softwareProp
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

	lookup, cleanup, err := openLookup(cfg)
	if err != nil {
		logger.Fatal("opening lookup backend", "err", err)
	}
	defer cleanup()

	g := engine.New(wiki, lookup)

	source := flag.Arg(0)
	rows, closeRows, err := openCSV(ctx, source)
	if err != nil {
		logger.Fatal("opening csv", "source", source, "err", err)
	}
	defer closeRows()

	batch := uuid.NewString()
	logger = logger.With("batch", batch)
	logger.Info("starting import", "source", source, "property", cfg.Import.SoftwareProperty)

	imported, failed, err := importRows(ctx, g, rows, cfg.Import.SoftwareProperty, logger)
	if err != nil {
		logger.Fatal("import aborted", "err", err)
	}
	logger.Info("import finished", "imported", imported, "failed", failed)
}

func loadConfig() (*config.Config, error) {
	if *configPath != "" {
		return config.LoadFile(*configPath)
	}
	return config.Load()
}

// openLookup builds the MappingLookup backend the configuration selects.
func openLookup(cfg *config.Config) (storage.MappingLookup, func(), error) {
	switch cfg.LookupBackend() {
	case config.BackendDirect:
		store, err := sqldb.Open(cfg.Lookup.DatabaseDriver, cfg.Lookup.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case config.BackendImporter:
		client := importerapi.NewClient(importerapi.Config{BaseURL: cfg.Lookup.ImporterAPIURL})
		return client, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown lookup backend %q", cfg.LookupBackend())
}

// openCSV streams the CSV from a URL or a local path.
func openCSV(ctx context.Context, source string) (*csv.Reader, func(), error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, nil, fmt.Errorf("fetching %s: status %d", source, resp.StatusCode)
		}
		return csv.NewReader(resp.Body), func() { resp.Body.Close() }, nil
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, nil, err
	}
	return csv.NewReader(f), func() { f.Close() }, nil
}

// importRows walks the CSV and attaches one software claim per row.
// The header row names the columns; "article" and "software" are
// required.
func importRows(ctx context.Context, g *engine.Engine, rows *csv.Reader, property string, logger *log.Logger) (imported, failed int, err error) {
	header, err := rows.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("reading csv header: %w", err)
	}
	articleCol, softwareCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "article":
			articleCol = i
		case "software":
			softwareCol = i
		}
	}
	if articleCol < 0 || softwareCol < 0 {
		return 0, 0, fmt.Errorf("csv header %v lacks article/software columns", header)
	}

	line := 1
	for {
		if ctx.Err() != nil {
			return imported, failed, ctx.Err()
		}

		record, err := rows.Read()
		if errors.Is(err, io.EOF) {
			return imported, failed, nil
		}
		line++
		if err != nil {
			logger.Warn("skipping malformed row", "line", line, "err", err)
			failed++
			continue
		}

		article := strings.TrimSpace(record[articleCol])
		software := strings.TrimSpace(record[softwareCol])
		if article == "" || software == "" {
			logger.Warn("skipping row with empty cell", "line", line)
			failed++
			continue
		}

		if err := importRow(ctx, g, article, software, property); err != nil {
			logger.Warn("row failed", "line", line, "article", article, "err", err)
			failed++
			continue
		}
		logger.Debug("row imported", "line", line, "article", article, "software", software)
		imported++
	}
}

// importRow attaches the software claim to the article item and writes
// it back.
func importRow(ctx context.Context, g *engine.Engine, article, software, property string) error {
	id, err := g.Resolve(ctx, article, types.KindItem, false)
	if err != nil {
		return fmt.Errorf("resolving article %q: %w", article, err)
	}
	item, err := g.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if err := item.AddClaim(ctx, property, software, "append_or_replace", engine.ClaimExtra{}); err != nil {
		return err
	}
	_, err = item.Write(ctx)
	return err
}
