package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/bryanwahyu/saringan/internal/domain/triage"
)

// extractExternal shells out for the rar/7z family, trying 7z first and
// unrar second, under a hard timeout. These codecs report no member
// metadata we can trust, so the cap is enforced purely by the post-hoc
// recount in Extract.
func (e *Extractor) extractExternal(ctx context.Context, src, dir string) error {
	type attempt struct {
		bin  string
		args []string
	}
	attempts := []attempt{
		{"7z", []string{"x", "-y", "-o" + dir, src}},
		{"unrar", []string{"x", "-o+", src, dir + string(os.PathSeparator)}},
	}

	cctx := ctx
	if e.cmdTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, e.cmdTimeout)
		defer cancel()
	}

	var lastErr error
	tried := false
	for _, a := range attempts {
		if _, err := exec.LookPath(a.bin); err != nil {
			continue
		}
		tried = true

		cmd := exec.CommandContext(cctx, a.bin, a.args...)
		out, err := cmd.CombinedOutput()
		if err == nil {
			return nil
		}
		if ee, ok := err.(*exec.ExitError); ok {
			lastErr = fmt.Errorf("%s exit %d: %s", a.bin, ee.ExitCode(), string(out))
		} else {
			lastErr = fmt.Errorf("%s: %v", a.bin, err)
		}
		e.log.WithError(lastErr).WithField("archive", src).Warn("external extractor failed, trying next")

		// Start the next attempt from a clean directory.
		if rerr := resetDir(dir); rerr != nil {
			return triage.NewExtractionError(triage.ReasonBadContainer, src, rerr)
		}
	}

	if !tried {
		return triage.NewExtractionError(triage.ReasonNoExtractor, src,
			errors.New("no extractor available for rar/7z archives"))
	}
	return triage.NewExtractionError(triage.ReasonBadContainer, src, lastErr)
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.Mkdir(dir, 0o755)
}
