package repositories

import (
	"context"
	"time"

	"github.com/challenge-infra/submission-runner/models"
)

// RunRepository keeps the local ledger of harness invocations.
type RunRepository interface {
	GenericRepository[models.Run]
	// GetByRunID retrieves the run with the given run identifier.
	GetByRunID(ctx context.Context, runID string) (models.Run, error)
	// ListRecent returns up to limit runs started after since, newest first.
	// An empty submissionID matches every submission and a zero since matches every run.
	ListRecent(ctx context.Context, submissionID string, since time.Time, limit int) ([]models.Run, error)
}
