package ai

import (
	"context"
	"errors"
)

// Client interface untuk provider AI yang merangkum laporan triage
type Client interface {
	AnalyzeReport(ctx context.Context, reportJSON string) (string, error)
}

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")
