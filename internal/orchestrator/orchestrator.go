// Package orchestrator fans a batch of inputs out across a worker pool,
// running the full per-document extraction pipeline for each and collecting
// per-file, JSONL, and combined-JSON outputs, per spec.md §4.11.
package orchestrator

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/adverant/legalextract/internal/cache"
	"github.com/adverant/legalextract/internal/classify"
	"github.com/adverant/legalextract/internal/config"
	"github.com/adverant/legalextract/internal/errors"
	"github.com/adverant/legalextract/internal/localextract"
	"github.com/adverant/legalextract/internal/logging"
	"github.com/adverant/legalextract/internal/merge"
	"github.com/adverant/legalextract/internal/model"
	"github.com/adverant/legalextract/internal/ocr"
	"github.com/adverant/legalextract/internal/preprocess"
	"github.com/adverant/legalextract/internal/rasterizer"
	"github.com/adverant/legalextract/internal/remote"
)

var supportedExts = map[string]bool{
	".pdf": true, ".png": true, ".jpg": true, ".jpeg": true,
	".tif": true, ".tiff": true, ".bmp": true, ".webp": true,
}

// AuditSink persists a DocResult somewhere outside the process, e.g. a
// Postgres table. A nil AuditSink disables auditing.
type AuditSink interface {
	Record(result model.DocResult) error
}

// Orchestrator wires together every pipeline stage and drives the worker
// pool described in spec.md §4.11/§5.
type Orchestrator struct {
	cfg        *config.Config
	rasterizer *rasterizer.Rasterizer
	ocrAdapter *ocr.Adapter
	remote     *remote.Client
	cacheStore cache.Store
	audit      AuditSink
	logger     *logging.Logger
}

// New builds an Orchestrator from a validated Config. cacheStore and audit
// may be nil (caching and auditing are both optional).
func New(cfg *config.Config, cacheStore cache.Store, audit AuditSink, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		rasterizer: rasterizer.New(cfg.RasterizeBin),
		ocrAdapter: ocr.New(cfg.Lang, logger),
		remote:     remote.NewClient(cfg.APIKey, cfg.Model, cfg.QPS(), time.Duration(cfg.TimeoutSec)*time.Second, logger),
		cacheStore: cacheStore,
		audit:      audit,
		logger:     logger,
	}
}

// Summary is the combined-JSON output shape spec.md §6 describes.
type Summary struct {
	GeneratedAt int64                `json:"generated_at"`
	Model       string               `json:"model"`
	Documents   []model.MergedRecord `json:"documents"`
	Errors      []sourceError        `json:"errors"`
	Stats       stats                `json:"stats"`
}

type sourceError struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

type stats struct {
	Processed       int     `json:"processed"`
	OK              int     `json:"ok"`
	Errors          int     `json:"errors"`
	AvgSnippetChars float64 `json:"avg_snippet_chars"`
}

// Run discovers inputs under cfg.InputPath, processes them with a worker
// pool of size min(cfg.Threads, len(inputs)), and writes every configured
// sink. now is the Unix timestamp stamped onto the combined output.
func (o *Orchestrator) Run(now int64) (*Summary, error) {
	inputs, err := discover(o.cfg.InputPath)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, errors.New(errors.ConfigError, "no supported inputs found at INPUT_PATH", nil)
	}

	workers := o.cfg.Threads
	if workers > len(inputs) {
		workers = len(inputs)
	}

	results := make([]*model.DocResult, len(inputs))

	var jsonlFile *os.File
	var jsonlWriter *bufio.Writer
	if o.cfg.JSONLPath != "" {
		f, err := os.Create(o.cfg.JSONLPath)
		if err != nil {
			return nil, errors.New(errors.IOError, "failed to create JSONL sink", err)
		}
		defer f.Close()
		jsonlFile = f
		jsonlWriter = bufio.NewWriter(f)
		defer jsonlWriter.Flush()
	}

	var nextIndex atomic.Int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for {
			i := int(nextIndex.Add(1)) - 1
			if i >= len(inputs) {
				return
			}
			path := inputs[i]
			result := o.processOne(path)

			mu.Lock()
			results[i] = result
			o.logProgress(i+1, len(inputs), path, result.OK)
			if o.cfg.PerFile && result.OK {
				o.writePerFile(path, result.Merged)
			}
			if jsonlWriter != nil {
				o.appendJSONL(jsonlWriter, result)
			}
			mu.Unlock()

			if o.audit != nil {
				if err := o.audit.Record(*result); err != nil {
					o.logger.Warn("audit sink failed", "source", path, "error", err)
				}
			}
		}
	}

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go worker()
	}
	wg.Wait()
	_ = jsonlFile

	return o.buildSummary(now, results), nil
}

func (o *Orchestrator) buildSummary(now int64, results []*model.DocResult) *Summary {
	summary := &Summary{
		GeneratedAt: now,
		Model:       o.cfg.Model,
	}

	var charsSum int
	var okCount int
	for _, r := range results {
		summary.Stats.Processed++
		if r.OK {
			summary.Stats.OK++
			summary.Documents = append(summary.Documents, r.Merged)
			charsSum += r.CharsUsed
			okCount++
		} else {
			summary.Stats.Errors++
			summary.Errors = append(summary.Errors, sourceError{Source: filepath.Base(r.InputPath), Error: r.Error})
		}
	}
	if okCount > 0 {
		summary.Stats.AvgSnippetChars = float64(charsSum) / float64(okCount)
	}
	return summary
}

// WriteCombined serializes summary to cfg.OutputJSON.
func (o *Orchestrator) WriteCombined(summary *Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errors.New(errors.IOError, "failed to marshal combined output", err)
	}
	if err := os.WriteFile(o.cfg.OutputJSON, data, 0o644); err != nil {
		return errors.New(errors.IOError, "failed to write combined output", err)
	}
	return nil
}

func (o *Orchestrator) logProgress(done, total int, path string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	fmt.Printf("[%d/%d] %s: %s\n", done, total, filepath.Base(path), status)
}

func (o *Orchestrator) writePerFile(sourcePath string, merged model.MergedRecord) {
	ext := filepath.Ext(sourcePath)
	stem := strings.TrimSuffix(sourcePath, ext)
	outPath := stem + ".extracted.json"

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		o.logger.Warn("failed to marshal per-file output", "source", sourcePath, "error", err)
		return
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		o.logger.Warn("failed to write per-file output", "source", sourcePath, "error", err)
	}
}

type jsonlLine struct {
	OK       bool                 `json:"ok"`
	Source   string               `json:"source"`
	DocType  string               `json:"doc_type"`
	PageCount int                 `json:"page_count"`
	Data     model.MergedRecord   `json:"data,omitempty"`
	Error    string               `json:"error,omitempty"`
}

func (o *Orchestrator) appendJSONL(w *bufio.Writer, r *model.DocResult) {
	line := jsonlLine{
		OK:        r.OK,
		Source:    filepath.Base(r.InputPath),
		DocType:   r.DocType,
		PageCount: r.Pages,
	}
	if r.OK {
		line.Data = r.Merged
	} else {
		line.Error = r.Error
	}
	data, err := json.Marshal(line)
	if err != nil {
		o.logger.Warn("failed to marshal JSONL line", "source", r.InputPath, "error", err)
		return
	}
	w.Write(data)
	w.WriteString("\n")
	w.Flush()
}

// processOne runs the full per-document pipeline for path and always
// returns a non-nil DocResult, per spec.md's "produced exactly once per
// input" invariant.
func (o *Orchestrator) processOne(path string) *model.DocResult {
	docLogger := o.logger.WithSource(filepath.Base(path))

	kind, err := classifyMedia(path)
	if err != nil {
		return failResult(path, err)
	}

	var pagePaths []string
	var workDir string
	if kind == model.MediaPDF {
		workDir, err = os.MkdirTemp("", "legalextract-"+uuid.NewString())
		if err != nil {
			return failResult(path, errors.New(errors.IOError, "failed to create workspace", err))
		}
		pagePaths, err = o.rasterizer.Rasterize(path, workDir)
		if err != nil {
			return failResult(path, err)
		}
	} else {
		pagePaths = []string{path}
	}

	var pageTexts []model.PageText
	for i, pagePath := range pagePaths {
		img, err := preprocess.Decode(pagePath)
		if err != nil {
			docLogger.Warn("failed to decode page", "page", i, "error", err)
			continue
		}
		processed, err := preprocess.Run(img)
		if err != nil {
			docLogger.Warn("failed to preprocess page", "page", i, "error", err)
			continue
		}
		text := o.ocrAdapter.Text(processed)
		pageTexts = append(pageTexts, model.PageText{Index: i, Text: text})
	}

	if kind == model.MediaPDF {
		os.RemoveAll(workDir)
	}

	if allPagesEmpty(pageTexts) {
		return failResult(path, errors.New(errors.OCRError, "OCR produced no text for any page", nil))
	}

	fullText := joinPageTexts(pageTexts)
	docType := classify.Classify(fullText)
	tag := docType.Tag()

	candidates := localextract.Extract(fullText, docType, o.cfg.MaxLines, o.cfg.MaxChars)
	charsUsed, _ := candidates["char_count"].(int)

	result, err := o.extract(tag, docType, candidates)
	if err != nil {
		return failResult(path, err)
	}

	merged := merge.Build(result, candidates, docType, path, len(pageTexts), fullText, o.cfg.Audit)
	if o.cfg.Redact {
		merged = merge.Redact(merged)
	}

	return &model.DocResult{
		InputPath: path,
		DocType:   tag,
		Merged:    merged,
		OK:        true,
		Pages:     len(pageTexts),
		CharsUsed: charsUsed,
	}
}

func (o *Orchestrator) extract(tag string, docType model.DocType, candidates model.LocalCandidates) (model.ExtractionResult, error) {
	if o.cacheStore != nil {
		key, err := cache.Key(tag, candidates)
		if err != nil {
			return nil, err
		}
		if cached, hit, err := o.cacheStore.Get(context.Background(), key); err == nil && hit {
			return cached, nil
		}

		snippet, _ := candidates["important_snippets"].(string)
		result, err := o.remote.Extract(context.Background(), docType, tag, candidates, snippet, o.cfg.MaxChars)
		if err != nil {
			return nil, err
		}
		if err := o.cacheStore.Put(context.Background(), key, result); err != nil {
			o.logger.Warn("failed to write cache entry", "key", key, "error", err)
		}
		return result, nil
	}

	snippet, _ := candidates["important_snippets"].(string)
	return o.remote.Extract(context.Background(), docType, tag, candidates, snippet, o.cfg.MaxChars)
}

func failResult(path string, err error) *model.DocResult {
	return &model.DocResult{
		InputPath: path,
		OK:        false,
		Error:     err.Error(),
	}
}

func allPagesEmpty(pages []model.PageText) bool {
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			return false
		}
	}
	return true
}

func joinPageTexts(pages []model.PageText) string {
	var sb strings.Builder
	for i, p := range pages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func classifyMedia(path string) (model.MediaKind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExts[ext] {
		return "", errors.Newf(errors.UnsupportedFileType, nil, "unsupported file extension %q", ext)
	}
	if ext == ".pdf" {
		return model.MediaPDF, nil
	}
	return model.MediaImage, nil
}

// discover returns every supported input under path: the path itself if it
// names a file, or its direct (non-recursive) children if it names a
// directory, sorted lexicographically.
func discover(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.New(errors.IOError, "failed to stat INPUT_PATH", err)
	}

	if !info.IsDir() {
		ext := strings.ToLower(filepath.Ext(path))
		if !supportedExts[ext] {
			return nil, errors.Newf(errors.UnsupportedFileType, nil, "unsupported file extension %q", ext)
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.New(errors.IOError, "failed to read INPUT_PATH directory", err)
	}

	var inputs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if supportedExts[ext] {
			inputs = append(inputs, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(inputs)
	return inputs, nil
}

