package epub

import (
	"encoding/xml"
	"fmt"
)

const (
	ncxNamespace = "http://www.daisy.org/z3986/2005/ncx/"
	ncxVersion   = "2005-1"
)

// ncxDocument is the XML shape of the navigation document this tool
// writes: one navPoint per chapter, no nesting.
type ncxDocument struct {
	XMLName  xml.Name      `xml:"ncx"`
	Xmlns    string        `xml:"xmlns,attr"`
	Version  string        `xml:"version,attr"`
	Head     []ncxMeta     `xml:"head>meta"`
	DocTitle ncxText       `xml:"docTitle"`
	NavMap   []ncxNavPoint `xml:"navMap>navPoint"`
}

type ncxMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type ncxText struct {
	Text string `xml:"text"`
}

type ncxNavPoint struct {
	ID        string     `xml:"id,attr"`
	PlayOrder int        `xml:"playOrder,attr"`
	Label     ncxText    `xml:"navLabel"`
	Content   ncxContent `xml:"content"`
}

type ncxContent struct {
	Src string `xml:"src,attr"`
}

// buildNCX serializes the navigation document.
func buildNCX(title, identifier string, points []NavPoint) ([]byte, error) {
	doc := ncxDocument{
		Xmlns:   ncxNamespace,
		Version: ncxVersion,
		Head: []ncxMeta{
			{Name: "dtb:uid", Content: identifier},
			{Name: "dtb:depth", Content: "1"},
		},
		DocTitle: ncxText{Text: title},
	}

	for _, p := range points {
		doc.NavMap = append(doc.NavMap, ncxNavPoint{
			ID:        p.ID,
			PlayOrder: p.PlayOrder,
			Label:     ncxText{Text: p.Label},
			Content:   ncxContent{Src: p.Src},
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal navigation document: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// ncxParsed is the shape used for parsing.
type ncxParsed struct {
	XMLName xml.Name `xml:"ncx"`
	Head    struct {
		Meta []struct {
			Name    string `xml:"name,attr"`
			Content string `xml:"content,attr"`
		} `xml:"meta"`
	} `xml:"head"`
	DocTitle struct {
		Text string `xml:"text"`
	} `xml:"docTitle"`
	NavMap struct {
		NavPoints []struct {
			ID        string `xml:"id,attr"`
			PlayOrder int    `xml:"playOrder,attr"`
			Label     struct {
				Text string `xml:"text"`
			} `xml:"navLabel"`
			Content struct {
				Src string `xml:"src,attr"`
			} `xml:"content"`
		} `xml:"navPoint"`
	} `xml:"navMap"`
}

// ParseNCX parses a navigation document.
func ParseNCX(data []byte) (*NavDoc, error) {
	var parsed ncxParsed
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse NCX: %w", err)
	}

	doc := &NavDoc{Title: parsed.DocTitle.Text}
	for _, m := range parsed.Head.Meta {
		if m.Name == "dtb:uid" {
			doc.UID = m.Content
			break
		}
	}

	for _, p := range parsed.NavMap.NavPoints {
		doc.NavPoints = append(doc.NavPoints, NavPoint{
			ID:        p.ID,
			PlayOrder: p.PlayOrder,
			Label:     p.Label.Text,
			Src:       p.Content.Src,
		})
	}

	return doc, nil
}
