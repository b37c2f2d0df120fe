package quarantine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const xorKey = byte(0xAA)

// Jail holds samples the pipeline recommended for quarantine. Files are
// stored XOR-neutralized so a jailed sample can never run by accident.
type Jail struct {
	Dir string
}

// New bikin jail di direktori tersebut
func New(dir string) *Jail {
	return &Jail{Dir: dir}
}

// Lockup copies the sample into the jail neutralized, then deletes the
// source. Returns the jailed path.
func (j *Jail) Lockup(sourcePath string) (string, error) {
	if err := os.MkdirAll(j.Dir, 0o700); err != nil {
		return "", fmt.Errorf("create jail: %w", err)
	}

	name := filepath.Base(sourcePath)
	stamp := time.Now().Format("20060102_150405")
	destPath := filepath.Join(j.Dir, fmt.Sprintf("%s_%s.quarantine", stamp, name))

	if err := xorCopy(sourcePath, destPath); err != nil {
		os.Remove(destPath)
		return "", err
	}
	if err := os.Remove(sourcePath); err != nil {
		return "", fmt.Errorf("delete original sample: %w", err)
	}
	return destPath, nil
}

// Restore de-neutralizes a jailed sample into destDir under a Restored_
// prefix and returns the restored path. The jailed copy stays in place.
func (j *Jail) Restore(jailedName, destDir string) (string, error) {
	srcPath := filepath.Join(j.Dir, filepath.Base(jailedName))
	base := filepath.Base(jailedName)
	if !strings.HasSuffix(base, ".quarantine") {
		return "", fmt.Errorf("not a quarantine file: %s", base)
	}
	base = strings.TrimSuffix(base, ".quarantine")

	// Name format: YYYYMMDD_HHMMSS_originalname
	original := base
	if parts := strings.SplitN(base, "_", 3); len(parts) == 3 {
		original = parts[2]
	}

	restorePath := filepath.Join(destDir, "Restored_"+original)
	if err := xorCopy(srcPath, restorePath); err != nil {
		os.Remove(restorePath)
		return "", err
	}
	return restorePath, nil
}

// List returns the jailed file names, newest last.
func (j *Jail) List() ([]string, error) {
	files := []string{}
	entries, err := os.ReadDir(j.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return files, nil
		}
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".quarantine") {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}

// xorCopy streams src into dst, flipping every byte with the jail key.
// XOR is its own inverse, so the same copy restores.
func xorCopy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	buf := make([]byte, 4096)
	for {
		n, rerr := in.Read(buf)
		if n > 0 {
			for i := 0; i < n; i++ {
				buf[i] ^= xorKey
			}
			if _, werr := out.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}
