package epub

import (
	"bytes"
	"fmt"
	"path"

	"github.com/PuerkitoBio/goquery"
)

// CheckReport summarizes a structural verification pass over one book.
type CheckReport struct {
	Path     string
	Title    string
	Chapters int
	Pages    int
	Images   int
}

// Check opens an EPUB produced by this tool and verifies its structure:
// container layout, manifest/spine consistency, navigation order, and the
// image reference of every page document.
func Check(bookPath string) (*CheckReport, error) {
	r, err := Open(bookPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	opfData, err := r.ReadFile(r.OPFPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read OPF: %w", err)
	}
	doc, err := ParseOPF(opfData)
	if err != nil {
		return nil, err
	}

	if len(doc.Spine) == 0 {
		return nil, fmt.Errorf("spine is empty")
	}
	if len(doc.Manifest) <= len(doc.Spine) {
		return nil, fmt.Errorf("manifest has %d items for %d spine entries", len(doc.Manifest), len(doc.Spine))
	}

	report := &CheckReport{Path: bookPath, Title: doc.Title, Pages: len(doc.Spine)}
	opfDir := path.Dir(r.OPFPath())

	// Every manifest resource must exist in the archive.
	imageHrefs := make(map[string]bool)
	docHrefs := make(map[string]bool)
	for _, id := range doc.ManifestOrder {
		item := doc.Manifest[id]
		if _, ok := r.Files()[joinHref(opfDir, item.Href)]; !ok {
			return nil, fmt.Errorf("manifest item %q: file %s missing from archive", id, item.Href)
		}
		switch item.MediaType {
		case MediaTypePNG:
			imageHrefs[item.Href] = true
			report.Images++
		case MediaTypeXHTML:
			docHrefs[item.Href] = true
		}
	}

	// Spine entries must be page documents, each wrapping a declared image.
	for _, idref := range doc.Spine {
		item, ok := doc.Manifest[idref]
		if !ok {
			return nil, fmt.Errorf("spine references unknown manifest item %q", idref)
		}
		if item.MediaType != MediaTypeXHTML {
			return nil, fmt.Errorf("spine item %q is not a page document (%s)", idref, item.MediaType)
		}
		if err := checkPage(r, opfDir, item, imageHrefs); err != nil {
			return nil, err
		}
	}

	// Navigation: play order must be 1..N and every entry must point at a
	// declared page document.
	ncxItem, ok := doc.Manifest[doc.TocID]
	if !ok {
		return nil, fmt.Errorf("spine toc %q not found in manifest", doc.TocID)
	}
	ncxData, err := r.ReadFile(joinHref(opfDir, ncxItem.Href))
	if err != nil {
		return nil, fmt.Errorf("failed to read NCX: %w", err)
	}
	nav, err := ParseNCX(ncxData)
	if err != nil {
		return nil, err
	}
	if nav.UID != doc.Identifier {
		return nil, fmt.Errorf("NCX uid %q does not match identifier %q", nav.UID, doc.Identifier)
	}
	for i, p := range nav.NavPoints {
		if p.PlayOrder != i+1 {
			return nil, fmt.Errorf("navPoint %q has play order %d, want %d", p.ID, p.PlayOrder, i+1)
		}
		if !docHrefs[p.Src] {
			return nil, fmt.Errorf("navPoint %q points at unknown document %s", p.ID, p.Src)
		}
	}
	report.Chapters = len(nav.NavPoints)

	return report, nil
}

// checkPage parses one page document and verifies that every image
// reference resolves to a declared image resource.
func checkPage(r *Reader, opfDir string, item ManifestItem, imageHrefs map[string]bool) error {
	data, err := r.ReadFile(joinHref(opfDir, item.Href))
	if err != nil {
		return fmt.Errorf("failed to read page %s: %w", item.Href, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to parse page %s: %w", item.Href, err)
	}

	imgs := doc.Find("img")
	if imgs.Length() == 0 {
		return fmt.Errorf("page %s has no image", item.Href)
	}

	var pageErr error
	imgs.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, ok := s.Attr("src")
		if !ok {
			pageErr = fmt.Errorf("page %s has an image without src", item.Href)
			return false
		}
		resolved := path.Join(path.Dir(item.Href), src)
		if !imageHrefs[resolved] {
			pageErr = fmt.Errorf("page %s references undeclared image %s", item.Href, src)
			return false
		}
		return true
	})
	return pageErr
}

// joinHref resolves a manifest href against the OPF directory.
func joinHref(dir, href string) string {
	if dir == "." || dir == "" {
		return href
	}
	return path.Join(dir, href)
}
