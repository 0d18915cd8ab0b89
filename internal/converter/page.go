package converter

import (
	"bytes"
	"fmt"
	"html/template"
)

const pageDocumentTemplate = `<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <title>{{.Title}}</title>
  <style type="text/css">
    img { display: block; margin: 0 auto; width: 100%; height: auto; max-height: none; }
  </style>
</head>
<body>
  <div><img src="{{.Image}}" alt="{{.Title}}"/></div>
</body>
</html>
`

var pageTemplate = template.Must(template.New("page").Parse(pageDocumentTemplate))

// pageID names the page document for a chapter and page pair. Document
// href, image href, and manifest identifiers all derive from it.
func pageID(chapter, page int) string {
	return fmt.Sprintf("chapter_%d_page_%d", chapter, page)
}

// renderPageDocument produces the XHTML wrapper that displays one page
// image at full width.
func renderPageDocument(title, imageHref string) ([]byte, error) {
	var buf bytes.Buffer
	data := struct{ Title, Image string }{Title: title, Image: imageHref}
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render page document: %w", err)
	}
	return buf.Bytes(), nil
}
