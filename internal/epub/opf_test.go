package epub

import (
	"strings"
	"testing"
)

func TestBuildOPF(t *testing.T) {
	items := []ManifestItem{
		{ID: "chapter_1_page_1", Href: "chapter_1_page_1.xhtml", MediaType: MediaTypeXHTML},
		{ID: "chapter_1_page_1_img", Href: "static/chapter_1_page_1.png", MediaType: MediaTypePNG},
	}
	out, err := buildOPF("Sample Book", "urn:uuid:sample", "chapter_1_page_1_img", items, []string{"chapter_1_page_1"})
	if err != nil {
		t.Fatalf("buildOPF() error = %v", err)
	}

	opf := string(out)
	if !strings.HasPrefix(opf, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Error("OPF does not start with an XML declaration")
	}

	for _, want := range []string{
		`<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="BookId">`,
		`<metadata xmlns:dc="http://purl.org/dc/elements/1.1/">`,
		`<dc:title>Sample Book</dc:title>`,
		`<dc:language>en</dc:language>`,
		`<dc:identifier id="BookId">urn:uuid:sample</dc:identifier>`,
		`<meta name="cover" content="chapter_1_page_1_img">`,
		`<item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml">`,
		`<spine toc="ncx">`,
		`<itemref idref="chapter_1_page_1">`,
	} {
		if !strings.Contains(opf, want) {
			t.Errorf("OPF is missing %s", want)
		}
	}

	// The NCX entry leads the manifest.
	ncxAt := strings.Index(opf, `id="ncx"`)
	pageAt := strings.Index(opf, `id="chapter_1_page_1"`)
	if ncxAt < 0 || pageAt < 0 || ncxAt > pageAt {
		t.Errorf("NCX entry at %d, first page entry at %d, want NCX first", ncxAt, pageAt)
	}
}

func TestBuildOPF_NoCover(t *testing.T) {
	items := []ManifestItem{
		{ID: "chapter_1_page_1", Href: "chapter_1_page_1.xhtml", MediaType: MediaTypeXHTML},
	}
	out, err := buildOPF("No Cover", "urn:uuid:nocover", "", items, []string{"chapter_1_page_1"})
	if err != nil {
		t.Fatalf("buildOPF() error = %v", err)
	}

	if strings.Contains(string(out), `name="cover"`) {
		t.Error("OPF declares a cover meta element without a cover")
	}
}

func TestParseOPF(t *testing.T) {
	opfContent := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="BookId">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Parsed Book</dc:title>
    <dc:language>en</dc:language>
    <dc:identifier id="BookId">urn:uuid:parsed</dc:identifier>
    <meta name="cover" content="chapter_1_page_1_img"/>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="chapter_1_page_1" href="chapter_1_page_1.xhtml" media-type="application/xhtml+xml"/>
    <item id="chapter_1_page_1_img" href="static/chapter_1_page_1.png" media-type="image/png"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="chapter_1_page_1"/>
  </spine>
</package>`

	doc, err := ParseOPF([]byte(opfContent))
	if err != nil {
		t.Fatalf("ParseOPF() error = %v", err)
	}

	if doc.Title != "Parsed Book" {
		t.Errorf("Title = %q, want %q", doc.Title, "Parsed Book")
	}
	if doc.Language != "en" {
		t.Errorf("Language = %q, want %q", doc.Language, "en")
	}
	if doc.UniqueID != "BookId" {
		t.Errorf("UniqueID = %q, want %q", doc.UniqueID, "BookId")
	}
	if doc.Identifier != "urn:uuid:parsed" {
		t.Errorf("Identifier = %q, want %q", doc.Identifier, "urn:uuid:parsed")
	}
	if doc.CoverID != "chapter_1_page_1_img" {
		t.Errorf("CoverID = %q, want %q", doc.CoverID, "chapter_1_page_1_img")
	}
	if doc.TocID != "ncx" {
		t.Errorf("TocID = %q, want %q", doc.TocID, "ncx")
	}

	wantOrder := []string{"ncx", "chapter_1_page_1", "chapter_1_page_1_img"}
	if len(doc.ManifestOrder) != len(wantOrder) {
		t.Fatalf("len(ManifestOrder) = %d, want %d", len(doc.ManifestOrder), len(wantOrder))
	}
	for i, id := range wantOrder {
		if doc.ManifestOrder[i] != id {
			t.Errorf("ManifestOrder[%d] = %q, want %q", i, doc.ManifestOrder[i], id)
		}
	}

	img, ok := doc.Manifest["chapter_1_page_1_img"]
	if !ok {
		t.Fatal("chapter_1_page_1_img not found in manifest")
	}
	if img.Href != "static/chapter_1_page_1.png" {
		t.Errorf("Href = %q, want %q", img.Href, "static/chapter_1_page_1.png")
	}
	if img.MediaType != MediaTypePNG {
		t.Errorf("MediaType = %q, want %q", img.MediaType, MediaTypePNG)
	}

	if len(doc.Spine) != 1 || doc.Spine[0] != "chapter_1_page_1" {
		t.Errorf("Spine = %v, want [chapter_1_page_1]", doc.Spine)
	}
}

func TestParseOPF_IdentifierPrefersUniqueID(t *testing.T) {
	opfContent := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="BookId">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Two Identifiers</dc:title>
    <dc:language>en</dc:language>
    <dc:identifier>first-but-unreferenced</dc:identifier>
    <dc:identifier id="BookId">urn:uuid:referenced</dc:identifier>
  </metadata>
  <manifest>
    <item id="chapter" href="chapter.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="chapter"/>
  </spine>
</package>`

	doc, err := ParseOPF([]byte(opfContent))
	if err != nil {
		t.Fatalf("ParseOPF() error = %v", err)
	}
	if doc.Identifier != "urn:uuid:referenced" {
		t.Errorf("Identifier = %q, want %q", doc.Identifier, "urn:uuid:referenced")
	}
}

func TestParseOPF_IdentifierFallsBackToFirst(t *testing.T) {
	opfContent := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="missing-id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Dangling Reference</dc:title>
    <dc:language>en</dc:language>
    <dc:identifier>fallback-value</dc:identifier>
  </metadata>
  <manifest>
    <item id="chapter" href="chapter.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="chapter"/>
  </spine>
</package>`

	doc, err := ParseOPF([]byte(opfContent))
	if err != nil {
		t.Fatalf("ParseOPF() error = %v", err)
	}
	if doc.Identifier != "fallback-value" {
		t.Errorf("Identifier = %q, want %q", doc.Identifier, "fallback-value")
	}
}

func TestParseOPF_Malformed(t *testing.T) {
	if _, err := ParseOPF([]byte("<package><metadata></package>")); err == nil {
		t.Error("ParseOPF() succeeded on malformed XML")
	}
}
