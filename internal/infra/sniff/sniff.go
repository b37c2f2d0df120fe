package sniff

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Detector resolves MIME types by content sniffing. File names and
// extensions are never consulted: samples lie about both.
type Detector struct{}

// New bikin detector
func New() Detector { return Detector{} }

// Detect returns the bare MIME type, "unknown" when the file cannot be
// read. Parameters (charset etc.) are stripped so callers can match on
// the type alone.
func (Detector) Detect(path string) string {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "unknown"
	}
	s := m.String()
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
