package extract

import (
	"archive/tar"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bryanwahyu/saringan/internal/domain/triage"
)

type compression int

const (
	compressNone compression = iota
	compressGzip
	compressBzip2
)

// extractTar unpacks the tar family in two passes: pass one counts
// members and validates every path, pass two writes. Tar is a stream, so
// the second pass simply reopens the file.
func (e *Extractor) extractTar(src, dir string, comp compression) error {
	count := 0
	err := e.walkTar(src, comp, func(hdr *tar.Header, _ *tar.Reader) error {
		count++
		if _, merr := memberPath(dir, hdr.Name); merr != nil {
			return triage.NewExtractionError(triage.ReasonTraversal, src, merr)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if count > e.maxMembers {
		return triage.NewExtractionError(triage.ReasonCountExceeded, src,
			fmt.Errorf("archive declares %d members, limit %d", count, e.maxMembers))
	}

	return e.walkTar(src, comp, func(hdr *tar.Header, tr *tar.Reader) error {
		target, merr := memberPath(dir, hdr.Name)
		if merr != nil {
			return triage.NewExtractionError(triage.ReasonTraversal, src, merr)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return triage.NewExtractionError(triage.ReasonBadContainer, src, err)
			}
		case tar.TypeReg:
			if err := writeTarMember(target, tr); err != nil {
				return triage.NewExtractionError(triage.ReasonBadContainer, src, err)
			}
		default:
			// Link and device members are never materialized: a symlink
			// inside the scratch dir would let a later member write
			// through it to anywhere.
		}
		return nil
	})
}

func writeTarMember(target string, tr *tar.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	w, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer w.Close()

	_, err = io.Copy(w, tr)
	return err
}

func (e *Extractor) walkTar(src string, comp compression, fn func(*tar.Header, *tar.Reader) error) error {
	f, err := os.Open(src)
	if err != nil {
		return triage.NewExtractionError(triage.ReasonBadContainer, src, err)
	}
	defer f.Close()

	var r io.Reader = f
	switch comp {
	case compressGzip:
		gz, gerr := gzip.NewReader(f)
		if gerr != nil {
			return triage.NewExtractionError(triage.ReasonBadContainer, src, gerr)
		}
		defer gz.Close()
		r = gz
	case compressBzip2:
		r = bzip2.NewReader(f)
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return triage.NewExtractionError(triage.ReasonBadContainer, src, err)
		}
		if err := fn(hdr, tr); err != nil {
			return err
		}
	}
}
