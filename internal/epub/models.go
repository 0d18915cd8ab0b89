package epub

// Media types of the resources this tool declares in a package manifest.
const (
	MediaTypeXHTML = "application/xhtml+xml"
	MediaTypePNG   = "image/png"
	MediaTypeNCX   = "application/x-dtbncx+xml"
)

// MimetypeContent is the required content of the mimetype entry.
const MimetypeContent = "application/epub+zip"

// ManifestItem is a single resource declared in the package manifest.
type ManifestItem struct {
	ID        string
	Href      string // relative to the OPF directory
	MediaType string
}

// PackageDoc is the parsed form of a package document (content.opf).
type PackageDoc struct {
	UniqueID      string // unique-identifier attribute of the package element
	Title         string
	Language      string
	Identifier    string
	CoverID       string // manifest id named by meta name="cover"
	Manifest      map[string]ManifestItem
	ManifestOrder []string // manifest ids in document order
	Spine         []string // idrefs in reading order
	TocID         string   // manifest id of the NCX (spine toc attribute)
}

// NavDoc is the parsed form of a navigation document (toc.ncx).
type NavDoc struct {
	UID       string
	Title     string
	NavPoints []NavPoint
}

// NavPoint is a single chapter entry in the navigation map.
type NavPoint struct {
	ID        string
	PlayOrder int
	Label     string
	Src       string // href of the chapter's first page document
}
