// Package converter turns directories of chapter PDFs into image based
// EPUB ebooks.
package converter

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/nasrak62/pdf2epub/internal/epub"
)

// DefaultDPI is the render resolution used when none is configured.
const DefaultDPI = 150

var ErrNoChapters = errors.New("no chapters found")

// PageRenderer rasterizes a PDF document into one image per page, in page
// order.
type PageRenderer interface {
	RenderPages(path string, dpi int) ([]image.Image, error)
}

// Options holds the settings for building ebooks.
type Options struct {
	DPI           int
	MaxImageWidth int
	OutputDir     string
	Renderer      PageRenderer
	Logger        *slog.Logger
}

// Assembler builds one EPUB per book directory.
type Assembler struct {
	opts    Options
	encoder PageEncoder
	log     *slog.Logger
}

// NewAssembler creates an assembler for the given options. A zero DPI
// falls back to DefaultDPI and a nil logger to slog.Default.
func NewAssembler(opts Options) *Assembler {
	if opts.DPI <= 0 {
		opts.DPI = DefaultDPI
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Assembler{
		opts:    opts,
		encoder: PageEncoder{MaxWidth: opts.MaxImageWidth},
		log:     log,
	}
}

// Build renders every chapter PDF in sourceDir and packs the pages into
// OutputDir/<name>.epub. The output appears only after the whole book has
// been assembled; a failed build leaves any previous output untouched.
func (a *Assembler) Build(name, sourceDir string) error {
	if a.opts.Renderer == nil {
		return errors.New("no page renderer configured")
	}

	chapters, err := DiscoverChapters(sourceDir)
	if err != nil {
		return err
	}
	if len(chapters) == 0 {
		return fmt.Errorf("%w in %s", ErrNoChapters, sourceDir)
	}

	outPath := filepath.Join(a.opts.OutputDir, name+".epub")
	w, err := epub.Create(outPath)
	if err != nil {
		return err
	}
	defer w.Discard()

	builder := epub.NewPackageBuilder(name, "urn:uuid:"+uuid.NewString())

	a.log.Info("building ebook", "name", name, "chapters", len(chapters), "output", w.Path())

	for _, chapter := range chapters {
		if err := a.buildChapter(w, builder, chapter); err != nil {
			return fmt.Errorf("chapter %d (%s): %w", chapter.Number, filepath.Base(chapter.Path), err)
		}
	}

	opf, ncx, err := builder.Finalize()
	if err != nil {
		return err
	}
	if err := w.Finalize(opf, ncx); err != nil {
		return err
	}

	a.log.Info("ebook created", "name", name, "output", w.Path())
	return nil
}

// buildChapter renders one chapter and adds a page document plus a page
// image for every rendered page, then a navigation entry pointing at the
// chapter's first page.
func (a *Assembler) buildChapter(w *epub.Writer, builder *epub.PackageBuilder, chapter Chapter) error {
	pages, err := a.opts.Renderer.RenderPages(chapter.Path, a.opts.DPI)
	if err != nil {
		return fmt.Errorf("failed to render pages: %w", err)
	}
	if len(pages) == 0 {
		return errors.New("no pages rendered")
	}

	a.log.Info("adding chapter", "title", chapter.Title, "pages", len(pages))

	for i, page := range pages {
		number := i + 1
		id := pageID(chapter.Number, number)
		docHref := id + ".xhtml"
		imageHref := "static/" + id + ".png"
		title := fmt.Sprintf("%s - Page %d", chapter.Title, number)

		a.log.Debug("creating page", "id", id, "title", title)

		doc, err := renderPageDocument(title, imageHref)
		if err != nil {
			return err
		}
		imageData, err := a.encoder.Encode(page)
		if err != nil {
			return fmt.Errorf("failed to encode page %d: %w", number, err)
		}

		if err := w.Add("OEBPS/"+docHref, doc); err != nil {
			return err
		}
		if err := w.Add("OEBPS/"+imageHref, imageData); err != nil {
			return err
		}

		builder.AddManifestItem(epub.ManifestItem{ID: id, Href: docHref, MediaType: epub.MediaTypeXHTML})
		builder.AddManifestItem(epub.ManifestItem{ID: id + "_img", Href: imageHref, MediaType: epub.MediaTypePNG})
		builder.AddSpineItem(id)
	}

	builder.AddNavPoint(chapter.Title, pageID(chapter.Number, 1)+".xhtml")
	return nil
}
