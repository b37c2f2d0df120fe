package extract

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bryanwahyu/saringan/internal/domain/triage"
)

// extractZip unpacks a zip archive. The central directory gives the
// declared member count up front; every member path is validated before
// the first write.
func (e *Extractor) extractZip(src, dir string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return triage.NewExtractionError(triage.ReasonBadContainer, src, err)
	}
	defer zr.Close()

	if len(zr.File) > e.maxMembers {
		return triage.NewExtractionError(triage.ReasonCountExceeded, src,
			fmt.Errorf("archive declares %d members, limit %d", len(zr.File), e.maxMembers))
	}

	targets := make([]string, len(zr.File))
	for i, f := range zr.File {
		target, merr := memberPath(dir, f.Name)
		if merr != nil {
			return triage.NewExtractionError(triage.ReasonTraversal, src, merr)
		}
		targets[i] = target
	}

	for i, f := range zr.File {
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(targets[i], 0o755); err != nil {
				return triage.NewExtractionError(triage.ReasonBadContainer, src, err)
			}
			continue
		}
		if err := writeZipMember(targets[i], f); err != nil {
			return triage.NewExtractionError(triage.ReasonBadContainer, src, err)
		}
	}
	return nil
}

// writeZipMember materializes one member as a plain 0644 file. Mode bits
// from the archive are ignored: nothing extracted here should ever be
// executable.
func writeZipMember(target string, f *zip.File) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	w, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer w.Close()

	_, err = io.Copy(w, rc)
	return err
}
