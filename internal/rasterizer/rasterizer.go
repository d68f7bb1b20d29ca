// Package rasterizer converts a PDF into an ordered sequence of page images
// by shelling out to an external rasterizer tool (pdftoppm by default),
// cross-checking the page count it produced against pdfcpu's own page-count
// reader.
package rasterizer

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/adverant/legalextract/internal/errors"
)

// Rasterizer shells out to bin (default pdftoppm) to render every page of a
// PDF into a per-document temporary directory.
type Rasterizer struct {
	bin string
}

// New returns a Rasterizer invoking bin. An empty bin defaults to pdftoppm.
func New(bin string) *Rasterizer {
	if bin == "" {
		bin = "pdftoppm"
	}
	return &Rasterizer{bin: bin}
}

// Rasterize renders pdfPath's pages as PNGs inside workDir (already created
// by the caller) and returns their paths in page order. Fails with
// RasterizationError if the external tool exits nonzero or produces zero
// pages.
func (r *Rasterizer) Rasterize(pdfPath, workDir string) ([]string, error) {
	expectedPages, err := api.PageCountFile(pdfPath)
	if err != nil {
		return nil, errors.New(errors.RasterizationError, "failed to read PDF page count", err)
	}
	if expectedPages <= 0 {
		return nil, errors.New(errors.RasterizationError, "PDF reports zero pages", nil)
	}

	outPrefix := filepath.Join(workDir, "page")
	cmd := exec.Command(r.bin, "-png", "-r", "300", pdfPath, outPrefix)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Newf(errors.RasterizationError, err, "%s exited with an error", r.bin)
	}

	pages, err := collectPages(workDir)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, errors.New(errors.RasterizationError, "rasterizer produced zero pages", nil)
	}
	if len(pages) != expectedPages {
		return nil, errors.Newf(errors.RasterizationError, nil,
			"rasterizer produced %d pages, pdfcpu reports %d", len(pages), expectedPages)
	}
	return pages, nil
}

func collectPages(workDir string) ([]string, error) {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		return nil, errors.New(errors.RasterizationError, "failed to list rasterized pages", err)
	}
	var pages []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) == ".png" {
			pages = append(pages, filepath.Join(workDir, name))
		}
	}
	sort.Strings(pages)
	return pages, nil
}
