package extract

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/saringan/internal/domain/triage"
)

// Extractor implements the archive safety layer: isolated scratch
// directories, member path validation before any byte is written, and a
// member cap enforced on declared metadata and again on what actually
// landed on disk.
type Extractor struct {
	unpackRoot string
	maxMembers int
	cmdTimeout time.Duration
	log        *logrus.Entry
}

// New bikin extractor dengan batas keanggotaan arsip
func New(unpackRoot string, maxMembers int, cmdTimeout time.Duration, log *logrus.Entry) *Extractor {
	return &Extractor{
		unpackRoot: unpackRoot,
		maxMembers: maxMembers,
		cmdTimeout: cmdTimeout,
		log:        log,
	}
}

// Extract unpacks containerPath into a fresh scratch directory and
// returns it. On any failure the directory is removed and a typed
// *triage.ExtractionError comes back; the caller never receives a
// half-populated directory. On success the directory is owned by the
// caller, who must remove it after use.
func (e *Extractor) Extract(ctx context.Context, containerPath, mimeType string) (dir string, err error) {
	dir, serr := e.scratchDir(containerPath)
	if serr != nil {
		return "", triage.NewExtractionError(triage.ReasonScratchDir, containerPath, serr)
	}
	defer func() {
		if err != nil && dir != "" {
			os.RemoveAll(dir)
			dir = ""
		}
	}()

	switch mimeType {
	case "application/zip", "application/x-zip-compressed":
		err = e.extractZip(containerPath, dir)
	case "application/x-tar":
		err = e.extractTar(containerPath, dir, compressNone)
	case "application/gzip":
		err = e.extractTar(containerPath, dir, compressGzip)
	case "application/x-bzip2":
		err = e.extractTar(containerPath, dir, compressBzip2)
	case "application/x-rar-compressed", "application/x-rar", "application/x-7z-compressed":
		err = e.extractExternal(ctx, containerPath, dir)
	default:
		err = triage.NewExtractionError(triage.ReasonNoExtractor, containerPath,
			fmt.Errorf("unsupported container type %s", mimeType))
	}
	if err != nil {
		return "", err
	}

	// Recount what is actually on disk. Declared metadata can lie and the
	// external codecs report nothing at all.
	count, cerr := e.sweepAndCount(dir)
	if cerr != nil {
		return "", triage.NewExtractionError(triage.ReasonBadContainer, containerPath, cerr)
	}
	if count > e.maxMembers {
		return "", triage.NewExtractionError(triage.ReasonCountExceeded, containerPath,
			fmt.Errorf("%d files extracted, limit %d", count, e.maxMembers))
	}
	return dir, nil
}

// scratchDir allocates <unpackRoot>/<base>_<unix-ms>. A name collision is
// a hard failure, an existing directory is never reused.
func (e *Extractor) scratchDir(containerPath string) (string, error) {
	if err := os.MkdirAll(e.unpackRoot, 0o755); err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filepath.Base(containerPath), filepath.Ext(containerPath))
	dir := filepath.Join(e.unpackRoot, fmt.Sprintf("%s_%d", base, time.Now().UnixMilli()))
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// memberPath resolves an archive member inside dir and rejects traversal.
// The check is lexical: absolute names are refused outright and the
// relative form must not escape through "..".
func memberPath(dir, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("absolute member path %q", name)
	}
	target := filepath.Join(dir, name)
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("member path %q escapes extraction dir", name)
	}
	return target, nil
}

// sweepAndCount walks the scratch dir counting files. Symlinks are
// removed on sight so nothing downstream can be tricked into following
// one out of the jail; they still count against the cap.
func (e *Extractor) sweepAndCount(dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		count++
		if d.Type()&fs.ModeSymlink != 0 {
			if rerr := os.Remove(path); rerr != nil {
				return rerr
			}
			e.log.WithField("path", path).Warn("dropped symlink from extracted archive")
		}
		return nil
	})
	return count, err
}
