package ports

import (
	"context"

	"pricesheet/models"
)

// RunRepository stores the audit trail of comparisons and template updates
type RunRepository interface {
	Record(ctx context.Context, run *models.ComparisonRun) error
	ListRecent(ctx context.Context, limit int) ([]*models.ComparisonRun, error)
}
