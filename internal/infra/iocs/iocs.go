package iocs

import (
	"io"
	"net/netip"
	"os"
	"regexp"

	"github.com/bryanwahyu/saringan/internal/domain/triage"
)

var (
	urlPattern = regexp.MustCompile(`https?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)
	ipPattern  = regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`)
)

// Scanner pulls URL and public-IPv4 indicators out of raw bytes.
type Scanner struct {
	// MaxBytes caps how much of a file is read; <= 0 means no cap.
	MaxBytes int64
}

// New bikin scanner dengan batas baca
func New(maxBytes int64) *Scanner {
	return &Scanner{MaxBytes: maxBytes}
}

// Scan reads the file and extracts indicators in order of appearance.
// Nothing is deduplicated; aggregation upstream flattens, not sets.
func (s *Scanner) Scan(path string) (map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if s.MaxBytes > 0 {
		r = io.LimitReader(f, s.MaxBytes)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Extract(data), nil
}

// Extract runs the patterns over a byte slice.
func Extract(data []byte) map[string][]string {
	urls := []string{}
	for _, m := range urlPattern.FindAll(data, -1) {
		urls = append(urls, string(m))
	}
	ips := []string{}
	for _, m := range ipPattern.FindAll(data, -1) {
		if isPublicIPv4(string(m)) {
			ips = append(ips, string(m))
		}
	}
	return map[string][]string{
		triage.IndicatorURLs: urls,
		triage.IndicatorIPs:  ips,
	}
}

// isPublicIPv4 keeps only routable internet addresses. Private, loopback
// and unspecified ranges are noise in a triage report.
func isPublicIPv4(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	return addr.Is4() && !addr.IsPrivate() && !addr.IsLoopback() && !addr.IsUnspecified()
}
