package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Book is a single ebook definition: the book name and the directory
// holding its chapter PDFs.
type Book struct {
	Name string
	Path string
}

// Config holds the parsed configuration file.
type Config struct {
	Books []Book
}

var ErrNoEbooks = errors.New("no ebooks defined in configuration")

// bookEntry is the YAML shape of a single ebook value.
type bookEntry struct {
	Path string `yaml:"path"`
}

// Load reads and parses a configuration file. Books are returned in the
// order they appear in the ebooks section.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// The ebooks section is decoded through yaml.Node because a plain map
	// would lose the document order of the books.
	var doc struct {
		Ebooks yaml.Node `yaml:"ebooks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	switch doc.Ebooks.Kind {
	case yaml.MappingNode:
	case 0:
		return nil, ErrNoEbooks
	default:
		if doc.Ebooks.Tag == "!!null" {
			return nil, ErrNoEbooks
		}
		return nil, fmt.Errorf("ebooks section must be a mapping, got %s", doc.Ebooks.Tag)
	}

	cfg := &Config{}
	content := doc.Ebooks.Content
	for i := 0; i+1 < len(content); i += 2 {
		key, value := content[i], content[i+1]

		var entry bookEntry
		if err := value.Decode(&entry); err != nil {
			return nil, fmt.Errorf("ebook %q: %w", key.Value, err)
		}
		cfg.Books = append(cfg.Books, Book{Name: key.Value, Path: entry.Path})
	}

	if len(cfg.Books) == 0 {
		return nil, ErrNoEbooks
	}

	return cfg, nil
}
