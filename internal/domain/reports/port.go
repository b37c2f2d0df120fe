package reports

import "context"

// IndexRepository port (interface untuk index laporan di SQL)
type IndexRepository interface {
	Save(ctx context.Context, row *IndexRow) error
	Get(ctx context.Context, jobID string) (*IndexRow, error)
	Latest(ctx context.Context, limit int) ([]*IndexRow, error)
	Summary(ctx context.Context, sinceDays int) (int, int, int, int, error)

	Paginate(ctx context.Context, page, pageSize int, filters map[string]interface{}) (PaginatedResult, error)
}
