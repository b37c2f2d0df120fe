package pescan

import (
	"debug/pe"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/bryanwahyu/saringan/internal/domain/triage"
)

// API names tied to process injection. Matching is substring, so the
// A/W variants and Nt prefixed forms hit too.
var injectionAPIs = []string{
	"VirtualAlloc",
	"VirtualProtect",
	"CreateRemoteThread",
	"WriteProcessMemory",
	"QueueUserAPC",
	"SetWindowsHookEx",
	"NtUnmapViewOfSection",
}

const entropyThreshold = 6.5

// Inspector reads executable facts with the stdlib PE parser.
type Inspector struct{}

// New bikin inspector
func New() Inspector { return Inspector{} }

// Inspect returns facts for a PE file. Files that do not parse as PE
// report ErrNotExecutable; the caller records no facts and moves on.
func (Inspector) Inspect(path string) (*triage.ExecutableFacts, error) {
	f, err := pe.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", triage.ErrNotExecutable, err)
	}
	defer f.Close()

	facts := &triage.ExecutableFacts{
		SuspiciousImports:   []string{},
		HighEntropySections: []string{},
	}

	if symbols, err := f.ImportedSymbols(); err == nil {
		for _, sym := range symbols {
			// debug/pe reports "Func:DLL.dll"
			name := sym
			if i := strings.IndexByte(sym, ':'); i >= 0 {
				name = sym[:i]
			}
			for _, api := range injectionAPIs {
				if strings.Contains(name, api) {
					facts.SuspiciousImports = append(facts.SuspiciousImports, name)
					break
				}
			}
		}
	}

	var lastEnd int64
	for _, sec := range f.Sections {
		if end := int64(sec.Offset) + int64(sec.Size); end > lastEnd {
			lastEnd = end
		}
		if sec.Size == 0 {
			facts.IsPacked = true
			continue
		}
		data, err := sec.Data()
		if err != nil {
			continue
		}
		if shannonEntropy(data) > entropyThreshold {
			facts.HighEntropySections = append(facts.HighEntropySections, strings.TrimRight(sec.Name, "\x00"))
		}
	}

	if info, err := os.Stat(path); err == nil && lastEnd > 0 && info.Size() > lastEnd {
		facts.OverlayDetected = true
	}

	return facts, nil
}

// shannonEntropy of a byte slice, in bits per byte (0..8).
func shannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	total := float64(len(data))
	entropy := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}
