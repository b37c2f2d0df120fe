package triage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	domain "github.com/bryanwahyu/saringan/internal/domain/triage"
)

// Engine implements recursive static analysis over one artifact tree.
// Engine is stateless apart from its ports and safe for concurrent use.
type Engine struct {
	Sniffer    domain.Sniffer
	Matcher    domain.Matcher
	Inspector  domain.Inspector
	Indicators domain.IndicatorScanner
	Extractor  domain.Extractor
	MaxDepth   int
	Log        *logrus.Entry
}

// AnalyzeFile analisis satu file dari depth 0. Catastrophic faults become
// a minimal failed result; nothing escapes to crash the poller.
func (e *Engine) AnalyzeFile(ctx context.Context, path, hash string) (res *domain.Result) {
	defer func() {
		if r := recover(); r != nil {
			e.Log.WithField("path", path).Errorf("analysis failed: %v", r)
			res = domain.NewResult(domain.FileInfo{Hash: hash, Path: path})
			res.Fail(fmt.Errorf("%v", r))
		}
	}()
	return e.Analyze(ctx, path, hash, 0)
}

// Analyze walks one artifact. Containers recurse through the safety
// layer; leaves run the three isolated facets. The returned node always
// carries a risk consistent with its final aggregated score.
func (e *Engine) Analyze(ctx context.Context, path, hash string, depth int) *domain.Result {
	if depth > e.MaxDepth {
		e.Log.WithField("path", path).Warn("max recursion depth reached")
		res := domain.NewResult(domain.FileInfo{Hash: hash, Path: path})
		res.Fail(domain.ErrRecursionLimit)
		return res
	}

	start := time.Now()

	info := domain.FileInfo{Hash: hash, Path: path, MIMEType: e.Sniffer.Detect(path)}
	if st, err := os.Stat(path); err == nil {
		info.SizeBytes = st.Size()
	}
	res := domain.NewResult(info)

	if domain.IsContainerMIME(info.MIMEType) {
		e.analyzeContainer(ctx, res, path, depth)
	} else {
		e.analyzeLeaf(res, path)
	}

	res.Risk = domain.Assess(res.Risk.Score)
	res.DurationMS = time.Since(start).Milliseconds()
	return res
}

// analyzeContainer extracts and recurses. A fault mid-walk fails the node
// but keeps the children folded so far; the scratch dir always goes away.
func (e *Engine) analyzeContainer(ctx context.Context, res *domain.Result, path string, depth int) {
	res.MarkContainer()

	dir, err := e.Extractor.Extract(ctx, path, res.FileInfo.MIMEType)
	if err != nil {
		e.Log.WithError(err).WithField("path", path).Error("failed to process archive")
		res.Fail(fmt.Errorf("archive processing failed: %w", err))
		return
	}
	defer os.RemoveAll(dir)

	walkErr := filepath.WalkDir(dir, func(memberPath string, d fs.DirEntry, werr error) error {
		if werr != nil {
			return werr
		}
		if d.IsDir() {
			return nil
		}
		memberHash, herr := domain.HashFile(memberPath)
		if herr != nil {
			return herr
		}
		child := e.Analyze(ctx, memberPath, memberHash, depth+1)
		res.FoldChild(child)
		return nil
	})
	if walkErr != nil {
		e.Log.WithError(walkErr).WithField("path", path).Error("failed to process archive")
		res.Fail(fmt.Errorf("archive processing failed: %w", walkErr))
	}
}

// analyzeLeaf runs the facets. Tiap facet terisolasi: gagal satu, dua
// yang lain tetap jalan.
func (e *Engine) analyzeLeaf(res *domain.Result, path string) {
	matches, err := e.Matcher.Match(path)
	if err != nil {
		e.Log.WithError(err).WithField("path", path).Warn("signature scan failed")
	} else {
		res.SignatureMatches = append(res.SignatureMatches, matches...)
	}

	facts, err := e.Inspector.Inspect(path)
	switch {
	case err == nil:
		res.ExecutableAnalysis = facts
	case errors.Is(err, domain.ErrNotExecutable):
		// bukan executable, lewati
	default:
		e.Log.WithError(err).WithField("path", path).Warn("executable inspection failed")
	}

	indicators, err := e.Indicators.Scan(path)
	if err != nil {
		e.Log.WithError(err).WithField("path", path).Warn("indicator extraction failed")
	} else {
		for kind, values := range indicators {
			res.ExtractedIndicators[kind] = append(res.ExtractedIndicators[kind], values...)
		}
	}

	hasIndicators := false
	for _, values := range res.ExtractedIndicators {
		if len(values) > 0 {
			hasIndicators = true
			break
		}
	}
	res.Risk.Score = domain.ScoreSignals(
		len(res.SignatureMatches) > 0,
		res.ExecutableAnalysis.Flagged(),
		hasIndicators,
	)
}
