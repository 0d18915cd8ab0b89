package epub

import (
	"archive/zip"
	"fmt"
	"os"
)

const (
	mimetypePath  = "mimetype"
	containerPath = "META-INF/container.xml"
	opfPath       = "OEBPS/content.opf"
	ncxPath       = "OEBPS/toc.ncx"
)

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

// Writer streams entries into an EPUB container. The mimetype and
// container.xml entries are written on creation and pages as they are
// added; the package documents follow on Finalize, so archive entry order
// matches assembly order. The zip is built in a partial file next to path
// and only replaces path when Finalize succeeds.
type Writer struct {
	path    string
	partial string
	f       *os.File
	zw      *zip.Writer
	done    bool
}

// Create opens a container writer for path.
func Create(path string) (*Writer, error) {
	partial := path + ".partial"
	f, err := os.Create(partial)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	w := &Writer{path: path, partial: partial, f: f, zw: zip.NewWriter(f)}
	if err := w.writeMimetype(); err != nil {
		w.Discard()
		return nil, err
	}
	if err := w.Add(containerPath, []byte(containerXML)); err != nil {
		w.Discard()
		return nil, err
	}
	return w, nil
}

// writeMimetype writes the mimetype entry. It must be the first entry in
// the archive and must not be compressed.
func (w *Writer) writeMimetype() error {
	mw, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:   mimetypePath,
		Method: zip.Store,
	})
	if err != nil {
		return fmt.Errorf("failed to create mimetype entry: %w", err)
	}
	if _, err := mw.Write([]byte(MimetypeContent)); err != nil {
		return fmt.Errorf("failed to write mimetype: %w", err)
	}
	return nil
}

// Path returns the final output path.
func (w *Writer) Path() string {
	return w.path
}

// Add writes a single deflated entry.
func (w *Writer) Add(name string, data []byte) error {
	if w.done {
		return fmt.Errorf("container %s already closed", w.path)
	}
	ew, err := w.zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", name, err)
	}
	if _, err := ew.Write(data); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", name, err)
	}
	return nil
}

// Finalize writes the package documents, closes the archive, and moves it
// to its final path. A previous file at the final path is only replaced
// here, never by a failed build.
func (w *Writer) Finalize(opf, ncx []byte) error {
	if err := w.Add(opfPath, opf); err != nil {
		return err
	}
	if err := w.Add(ncxPath, ncx); err != nil {
		return err
	}
	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(w.partial, w.path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	w.done = true
	return nil
}

// Discard abandons the partial file. It is a no-op after a successful
// Finalize, so it can be deferred unconditionally.
func (w *Writer) Discard() {
	if w.done {
		return
	}
	w.done = true
	w.zw.Close()
	w.f.Close()
	os.Remove(w.partial)
}
