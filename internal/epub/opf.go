package epub

import (
	"encoding/xml"
	"fmt"
)

const (
	opfNamespace = "http://www.idpf.org/2007/opf"
	dcNamespace  = "http://purl.org/dc/elements/1.1/"

	defaultLanguage = "en"

	// bookIDName is the XML id of the dc:identifier element referenced by
	// the package unique-identifier attribute.
	bookIDName = "BookId"

	// ncxID and ncxHref are the fixed manifest entry for the navigation
	// document. The spine toc attribute points at ncxID.
	ncxID   = "ncx"
	ncxHref = "toc.ncx"
)

// opfPackage is the XML shape of the package document this tool writes.
// dc elements carry an explicit prefix so the output matches the usual
// EPUB 2.0 layout.
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Xmlns    string      `xml:"xmlns,attr"`
	Version  string      `xml:"version,attr"`
	UniqueID string      `xml:"unique-identifier,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest []opfItem   `xml:"manifest>item"`
	Spine    opfSpine    `xml:"spine"`
}

type opfMetadata struct {
	XmlnsDC    string        `xml:"xmlns:dc,attr"`
	Title      string        `xml:"dc:title"`
	Language   string        `xml:"dc:language"`
	Identifier opfIdentifier `xml:"dc:identifier"`
	Meta       []opfMeta     `xml:"meta,omitempty"`
}

type opfIdentifier struct {
	ID    string `xml:"id,attr"`
	Value string `xml:",chardata"`
}

type opfMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type opfItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

type opfSpine struct {
	Toc      string       `xml:"toc,attr"`
	ItemRefs []opfItemRef `xml:"itemref"`
}

type opfItemRef struct {
	IDRef string `xml:"idref,attr"`
}

// buildOPF serializes the package document. The manifest always starts
// with the fixed NCX entry, followed by the accumulated items in order.
func buildOPF(title, identifier, coverID string, items []ManifestItem, spine []string) ([]byte, error) {
	pkg := opfPackage{
		Xmlns:    opfNamespace,
		Version:  "2.0",
		UniqueID: bookIDName,
		Metadata: opfMetadata{
			XmlnsDC:    dcNamespace,
			Title:      title,
			Language:   defaultLanguage,
			Identifier: opfIdentifier{ID: bookIDName, Value: identifier},
		},
		Spine: opfSpine{Toc: ncxID},
	}

	if coverID != "" {
		pkg.Metadata.Meta = append(pkg.Metadata.Meta, opfMeta{Name: "cover", Content: coverID})
	}

	pkg.Manifest = append(pkg.Manifest, opfItem{ID: ncxID, Href: ncxHref, MediaType: MediaTypeNCX})
	for _, item := range items {
		pkg.Manifest = append(pkg.Manifest, opfItem{ID: item.ID, Href: item.Href, MediaType: item.MediaType})
	}

	for _, id := range spine {
		pkg.Spine.ItemRefs = append(pkg.Spine.ItemRefs, opfItemRef{IDRef: id})
	}

	out, err := xml.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal package document: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// pkgDocument is the namespace-aware shape used for parsing.
type pkgDocument struct {
	XMLName  xml.Name `xml:"package"`
	UniqueID string   `xml:"unique-identifier,attr"`
	Metadata struct {
		Title      []string `xml:"http://purl.org/dc/elements/1.1/ title"`
		Language   []string `xml:"http://purl.org/dc/elements/1.1/ language"`
		Identifier []struct {
			ID    string `xml:"id,attr"`
			Value string `xml:",chardata"`
		} `xml:"http://purl.org/dc/elements/1.1/ identifier"`
		Meta []struct {
			Name    string `xml:"name,attr"`
			Content string `xml:"content,attr"`
		} `xml:"meta"`
	} `xml:"metadata"`
	Manifest struct {
		Items []struct {
			ID        string `xml:"id,attr"`
			Href      string `xml:"href,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		Toc      string `xml:"toc,attr"`
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

// ParseOPF parses a package document.
func ParseOPF(data []byte) (*PackageDoc, error) {
	var pkg pkgDocument
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse OPF: %w", err)
	}

	doc := &PackageDoc{
		UniqueID: pkg.UniqueID,
		TocID:    pkg.Spine.Toc,
		Manifest: make(map[string]ManifestItem),
	}

	if len(pkg.Metadata.Title) > 0 {
		doc.Title = pkg.Metadata.Title[0]
	}
	if len(pkg.Metadata.Language) > 0 {
		doc.Language = pkg.Metadata.Language[0]
	}

	// The identifier referenced by unique-identifier wins; fall back to
	// the first one declared.
	for _, id := range pkg.Metadata.Identifier {
		if id.ID == pkg.UniqueID {
			doc.Identifier = id.Value
			break
		}
	}
	if doc.Identifier == "" && len(pkg.Metadata.Identifier) > 0 {
		doc.Identifier = pkg.Metadata.Identifier[0].Value
	}

	for _, m := range pkg.Metadata.Meta {
		if m.Name == "cover" && m.Content != "" {
			doc.CoverID = m.Content
			break
		}
	}

	for _, item := range pkg.Manifest.Items {
		doc.Manifest[item.ID] = ManifestItem{ID: item.ID, Href: item.Href, MediaType: item.MediaType}
		doc.ManifestOrder = append(doc.ManifestOrder, item.ID)
	}

	for _, ref := range pkg.Spine.ItemRefs {
		doc.Spine = append(doc.Spine, ref.IDRef)
	}

	return doc, nil
}
