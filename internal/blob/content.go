package blob

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how much of an upload is inspected to detect its type
const sniffLen = 3072

// active types are rendered by browsers and may run script
var active = map[string]bool{
	"text/html":                     true,
	"application/xhtml+xml":         true,
	"image/svg+xml":                 true,
	"text/xml":                      true,
	"application/xml":               true,
	"text/javascript":               true,
	"application/javascript":        true,
	"application/x-shockwave-flash": true,
}

// inlineImages are raster formats safe to display from the API origin
var inlineImages = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// Sniff detects the content type of r from its leading bytes. The returned
// reader yields the complete original stream.
func Sniff(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	head = head[:n]
	return mimetype.Detect(head).String(), io.MultiReader(bytes.NewReader(head), r), nil
}

// BaseType strips parameters and lowercases a content type
func BaseType(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// IsActive reports whether a browser would execute content of this type
func IsActive(contentType string) bool {
	return active[BaseType(contentType)]
}

// IsRasterImage reports whether contentType is a displayable bitmap format
func IsRasterImage(contentType string) bool {
	return inlineImages[BaseType(contentType)]
}

// InlineSafe reports whether content of this type may be shown inline.
// Everything else is served as a download.
func InlineSafe(contentType string) bool {
	base := BaseType(contentType)
	return inlineImages[base] || strings.HasPrefix(base, "audio/")
}
