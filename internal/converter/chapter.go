package converter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrNoChapterNumber  = errors.New("no chapter number in file name")
	ErrDuplicateChapter = errors.New("duplicate chapter number")
)

var chapterNumberPattern = regexp.MustCompile(`\d+`)

// Chapter is a single PDF document of a book, ordered by the number in its
// file name.
type Chapter struct {
	Path   string
	Number int
	Title  string
}

// ParseChapterNumber extracts the chapter number from a file name. The
// first run of digits wins, so "2.pdf" and "Chapter 2 - Revenge.pdf" both
// map to chapter 2.
func ParseChapterNumber(name string) (int, error) {
	match := chapterNumberPattern.FindString(name)
	if match == "" {
		return 0, fmt.Errorf("%w: %s", ErrNoChapterNumber, name)
	}
	number, err := strconv.Atoi(match)
	if err != nil {
		return 0, fmt.Errorf("failed to parse chapter number in %s: %w", name, err)
	}
	return number, nil
}

// DiscoverChapters lists the PDF documents in dir as chapters sorted by
// chapter number. Non-PDF files are ignored; a PDF without a number or two
// PDFs sharing one fail the whole book.
func DiscoverChapters(dir string) ([]Chapter, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}

	seen := make(map[int]string)
	var chapters []Chapter
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		number, err := ParseChapterNumber(name)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[number]; ok {
			return nil, fmt.Errorf("%w %d: %s and %s", ErrDuplicateChapter, number, prev, name)
		}
		seen[number] = name
		chapters = append(chapters, Chapter{
			Path:   filepath.Join(dir, name),
			Number: number,
			Title:  fmt.Sprintf("Chapter %d", number),
		})
	}

	sort.Slice(chapters, func(i, j int) bool { return chapters[i].Number < chapters[j].Number })
	return chapters, nil
}
