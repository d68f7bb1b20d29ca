// legalextract batch-extracts structured fields from legal-intake documents
// (PDFs and scanned images): rasterize, OCR, classify, locally pre-extract,
// then dispatch to a remote model for schema-constrained extraction, merging
// the two into one record per input document.
package main

import (
	"log"
	"os"
	"time"

	"github.com/adverant/legalextract/internal/audit"
	"github.com/adverant/legalextract/internal/cache"
	"github.com/adverant/legalextract/internal/config"
	"github.com/adverant/legalextract/internal/logging"
	"github.com/adverant/legalextract/internal/orchestrator"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger("legalextract")
	logger.Info("legalextract starting", "input", cfg.InputPath, "model", cfg.Model, "threads", cfg.Threads)

	cacheStore, err := buildCacheStore(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}

	var auditSink orchestrator.AuditSink
	if cfg.PostgresDSN != "" {
		logger.Info("connecting audit sink", "dsn_set", true)
		sink, err := audit.NewSink(cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("Failed to initialize audit sink: %v", err)
		}
		defer sink.Close()
		auditSink = sink
	}

	orc := orchestrator.New(cfg, cacheStore, auditSink, logger)

	summary, err := orc.Run(time.Now().Unix())
	if err != nil {
		log.Fatalf("Extraction run failed: %v", err)
	}

	if err := orc.WriteCombined(summary); err != nil {
		log.Fatalf("Failed to write combined output: %v", err)
	}

	logger.Info("legalextract finished",
		"processed", summary.Stats.Processed,
		"ok", summary.Stats.OK,
		"errors", summary.Stats.Errors)

	// A completed run exits 0 regardless of how many individual documents
	// failed; per-document errors are reported in the combined output's
	// errors array, not via the process exit code.
}

// buildCacheStore wires a file-backed cache (always, if --cache is set) and
// optionally layers a Redis-backed cache in front of it. When both are
// configured, Redis is checked first since it is the faster round trip.
func buildCacheStore(cfg *config.Config, logger *logging.Logger) (cache.Store, error) {
	var stores []cache.Store

	if cfg.CacheRedis != "" {
		redisStore, err := cache.NewRedisStore(cfg.CacheRedis)
		if err != nil {
			return nil, err
		}
		logger.Info("redis cache enabled", "url_set", true)
		stores = append(stores, redisStore)
	}

	if cfg.CacheDir != "" {
		logger.Info("file cache enabled", "dir", cfg.CacheDir)
		stores = append(stores, cache.NewFileStore(cfg.CacheDir))
	}

	switch len(stores) {
	case 0:
		return nil, nil
	case 1:
		return stores[0], nil
	default:
		return cache.NewTieredStore(stores...), nil
	}
}
