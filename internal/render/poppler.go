// Package render rasterizes PDF documents into page images using the
// poppler pdftoppm binary.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
)

// DefaultBinary is the renderer executable looked up on PATH when no
// explicit path is configured.
const DefaultBinary = "pdftoppm"

var ErrNoPages = errors.New("document produced no pages")

// Poppler renders PDF pages by shelling out to pdftoppm.
type Poppler struct {
	binary string
	log    *slog.Logger
}

// NewPoppler resolves the renderer binary and returns a renderer that logs
// through logger. An empty binary selects DefaultBinary.
func NewPoppler(binary string, logger *slog.Logger) (*Poppler, error) {
	if binary == "" {
		binary = DefaultBinary
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("failed to locate %s: %w", binary, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poppler{binary: resolved, log: logger}, nil
}

// RenderPages rasterizes every page of the document at path into an image
// at the given resolution, in page order.
func (p *Poppler) RenderPages(path string, dpi int) ([]image.Image, error) {
	pageCount, err := pdfapi.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	tmpDir, err := os.MkdirTemp("", "pdf2epub-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.Command(p.binary, "-r", strconv.Itoa(dpi), "-png", path, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed for %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}

	files, err := collectPageFiles(tmpDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPages, path)
	}

	pages := make([]image.Image, 0, len(files))
	for _, file := range files {
		img, err := decodePNGFile(file)
		if err != nil {
			return nil, err
		}
		pages = append(pages, img)
	}

	if len(pages) != pageCount {
		p.log.Warn("rendered page count differs from document page count",
			"path", path, "rendered", len(pages), "expected", pageCount)
	}
	return pages, nil
}

// collectPageFiles returns the rendered page files in page order.
func collectPageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list rendered pages: %w", err)
	}

	type pageFile struct {
		path   string
		number int
	}
	var files []pageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		number, ok := pageNumber(entry.Name())
		if !ok {
			continue
		}
		files = append(files, pageFile{path: filepath.Join(dir, entry.Name()), number: number})
	}

	// pdftoppm zero-pads the numeric suffix depending on the page count, so
	// ordering must be numeric rather than lexical.
	sort.Slice(files, func(i, j int) bool { return files[i].number < files[j].number })

	paths := make([]string, len(files))
	for i, file := range files {
		paths[i] = file.path
	}
	return paths, nil
}

// pageNumber extracts the page number from a pdftoppm output name such as
// "page-07.png".
func pageNumber(name string) (int, bool) {
	if !strings.HasPrefix(name, "page-") || !strings.HasSuffix(name, ".png") {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, "page-"), ".png")
	if digits == "" {
		return 0, false
	}
	number, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return number, true
}

func decodePNGFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rendered page: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode rendered page %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
