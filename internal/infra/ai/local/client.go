package local

import (
	"context"

	"github.com/bryanwahyu/saringan/internal/infra/ai/prompt"
)

// Client is the offline analyst. It derives the summary from the report
// content itself, which keeps the pipeline functional without an API
// key.
type Client struct{}

func NewClient() *Client { return &Client{} }

func (c *Client) AnalyzeReport(ctx context.Context, reportJSON string) (string, error) {
	return prompt.AnalyzeReportContent(reportJSON), nil
}
