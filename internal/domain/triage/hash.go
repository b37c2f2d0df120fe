package triage

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// HashFile streams the SHA256 of a file's bytes. The hex digest is the
// pipeline's content identity everywhere: dedup, output names, report ids.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
