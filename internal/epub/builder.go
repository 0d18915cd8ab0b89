package epub

import (
	"errors"
	"fmt"
	"strings"
)

var ErrFinalized = errors.New("package already finalized")

// PackageBuilder accumulates the manifest, spine, and navigation entries
// of one book and serializes the package documents once assembly is done.
// A builder belongs to a single book and is finalized at most once.
type PackageBuilder struct {
	title      string
	identifier string
	items      []ManifestItem
	spine      []string
	nav        []NavPoint
	coverID    string
	finalized  bool
}

// NewPackageBuilder creates a builder for a book with the given title and
// unique identifier.
func NewPackageBuilder(title, identifier string) *PackageBuilder {
	return &PackageBuilder{title: title, identifier: identifier}
}

// AddManifestItem declares a resource in the package manifest. The first
// image item becomes the declared cover.
func (b *PackageBuilder) AddManifestItem(item ManifestItem) {
	if b.coverID == "" && strings.HasPrefix(item.MediaType, "image/") {
		b.coverID = item.ID
	}
	b.items = append(b.items, item)
}

// AddSpineItem appends a page document to the reading order.
func (b *PackageBuilder) AddSpineItem(id string) {
	b.spine = append(b.spine, id)
}

// AddNavPoint appends a chapter entry to the navigation map. src is the
// href of the chapter's first page document. Play order follows the call
// order, starting at 1.
func (b *PackageBuilder) AddNavPoint(label, src string) {
	b.nav = append(b.nav, NavPoint{
		ID:        fmt.Sprintf("navPoint-%d", len(b.nav)+1),
		PlayOrder: len(b.nav) + 1,
		Label:     label,
		Src:       src,
	})
}

// Finalize validates the accumulated package and serializes the OPF and
// NCX documents.
func (b *PackageBuilder) Finalize() (opf, ncx []byte, err error) {
	if b.finalized {
		return nil, nil, ErrFinalized
	}
	b.finalized = true

	if len(b.spine) == 0 {
		return nil, nil, errors.New("spine is empty")
	}

	byID := make(map[string]ManifestItem, len(b.items))
	for _, item := range b.items {
		if _, ok := byID[item.ID]; ok {
			return nil, nil, fmt.Errorf("duplicate manifest id %q", item.ID)
		}
		byID[item.ID] = item
	}

	seen := make(map[string]bool, len(b.spine))
	for _, id := range b.spine {
		if seen[id] {
			return nil, nil, fmt.Errorf("duplicate spine entry %q", id)
		}
		seen[id] = true
		item, ok := byID[id]
		if !ok {
			return nil, nil, fmt.Errorf("spine references unknown manifest item %q", id)
		}
		if item.MediaType != MediaTypeXHTML {
			return nil, nil, fmt.Errorf("spine item %q is not a page document (%s)", id, item.MediaType)
		}
	}

	opf, err = buildOPF(b.title, b.identifier, b.coverID, b.items, b.spine)
	if err != nil {
		return nil, nil, err
	}
	ncx, err = buildNCX(b.title, b.identifier, b.nav)
	if err != nil {
		return nil, nil, err
	}
	return opf, ncx, nil
}
