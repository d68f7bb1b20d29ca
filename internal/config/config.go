// Package config parses and validates the legalextract CLI invocation:
// positional arguments plus the option flags spec.md §6 lists. Like the
// teacher's config package, all defaulting happens here: Load reports flag
// and usage errors, and normalizeAndValidate applies defaults and minimums
// and reports the remaining invalid configuration, each as a ConfigError.
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/adverant/legalextract/internal/errors"
	"github.com/joho/godotenv"
)

// Config holds one legalextract run's configuration.
type Config struct {
	InputPath  string
	APIKey     string
	OutputJSON string

	Threads      int
	Lang         string
	Model        string
	PerFile      bool
	JSONLPath    string
	CacheDir     string
	CacheRedis   string
	PostgresDSN  string
	Redact       bool
	Audit        bool
	TimeoutSec   int
	MaxLines     int
	MaxChars     int
	TesseractLib string
	RasterizeBin string
}

const (
	defaultLang       = "eng"
	defaultModel      = "gpt-4o-mini"
	defaultTimeoutSec = 120
	minTimeoutSec     = 30
	defaultMaxLines   = 40
	minMaxLines       = 6
	defaultMaxChars   = 6000
	minMaxChars       = 500
	defaultQPS        = 3.0
)

// Load parses os.Args[1:], applying a best-effort .env load first (mirroring
// the teacher's godotenv.Load(".env.nexus") startup step) and returns a
// validated Config.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		// Absence of a .env file is normal and is not reported; a file that
		// exists but cannot be read or parsed is reported and still treated
		// as non-fatal: CLI flags and OS environment remain authoritative.
		fmt.Fprintf(os.Stderr, "Warning: .env not loaded: %v\n", err)
	}

	fs := flag.NewFlagSet("legalextract", flag.ContinueOnError)
	threads := fs.Int("threads", 4, "worker pool size")
	lang := fs.String("lang", defaultLang, "OCR language code")
	model := fs.String("model", defaultModel, "remote model name")
	perFile := fs.Bool("per-file", false, "write <stem>.extracted.json next to each input")
	jsonl := fs.String("jsonl", "", "path to a JSONL sink, one object per processed document")
	cacheDir := fs.String("cache", "", "content-addressed cache directory")
	cacheRedis := fs.String("cache-redis", "", "optional redis URL used as an additional cache backend")
	postgresDSN := fs.String("postgres-dsn", "", "optional Postgres DSN for an audit log of DocResults")
	redact := fs.Bool("redact", false, "mask SSN/phone/email in merged records")
	audit := fs.Bool("audit", false, "include a raw_ocr_preview in merged records")
	timeout := fs.Int("timeout", defaultTimeoutSec, "remote HTTP timeout in seconds (min 30)")
	maxLines := fs.Int("max-lines", defaultMaxLines, "max snippet lines (min 6)")
	maxChars := fs.Int("max-chars", defaultMaxChars, "max snippet chars (min 500)")
	tesseractLib := fs.String("tessdata-prefix", "", "optional TESSDATA_PREFIX override")
	rasterizeBin := fs.String("rasterize-bin", "pdftoppm", "external PDF rasterizer binary")

	if err := fs.Parse(args); err != nil {
		return nil, errors.New(errors.ConfigError, "failed to parse flags", err)
	}

	rest := fs.Args()
	if len(rest) < 3 {
		return nil, errors.New(errors.ConfigError,
			"usage: legalextract INPUT_PATH OPENAI_API_KEY OUTPUT_JSON [options]", nil)
	}

	cfg := &Config{
		InputPath:    rest[0],
		APIKey:       rest[1],
		OutputJSON:   rest[2],
		Threads:      *threads,
		Lang:         *lang,
		Model:        *model,
		PerFile:      *perFile,
		JSONLPath:    *jsonl,
		CacheDir:     *cacheDir,
		CacheRedis:   *cacheRedis,
		PostgresDSN:  *postgresDSN,
		Redact:       *redact,
		Audit:        *audit,
		TimeoutSec:   *timeout,
		MaxLines:     *maxLines,
		MaxChars:     *maxChars,
		TesseractLib: *tesseractLib,
		RasterizeBin: *rasterizeBin,
	}

	if err := cfg.normalizeAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalizeAndValidate() error {
	if c.InputPath == "" {
		return errors.New(errors.ConfigError, "INPUT_PATH is required", nil)
	}
	if c.APIKey == "" {
		return errors.New(errors.ConfigError, "OPENAI_API_KEY is required", nil)
	}
	if c.OutputJSON == "" {
		return errors.New(errors.ConfigError, "OUTPUT_JSON is required", nil)
	}
	if c.Threads < 1 {
		c.Threads = 1
	}
	if c.TimeoutSec < minTimeoutSec {
		c.TimeoutSec = minTimeoutSec
	}
	if c.MaxLines < minMaxLines {
		c.MaxLines = minMaxLines
	}
	if c.MaxChars < minMaxChars {
		c.MaxChars = minMaxChars
	}
	if c.Lang == "" {
		c.Lang = defaultLang
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.TesseractLib != "" {
		if err := os.Setenv("TESSDATA_PREFIX", c.TesseractLib); err != nil {
			return errors.New(errors.ConfigError, "failed to set TESSDATA_PREFIX", err)
		}
	}
	if c.CacheDir != "" {
		if err := os.MkdirAll(c.CacheDir, 0o755); err != nil {
			return errors.New(errors.ConfigError, "failed to create cache directory", err)
		}
	}
	return nil
}

// QPS returns the fixed remote dispatch rate spec.md §4.8 mandates.
func (c *Config) QPS() float64 {
	return defaultQPS
}
