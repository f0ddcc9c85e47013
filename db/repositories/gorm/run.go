package repositories_gorm

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/challenge-infra/submission-runner/db/repositories"
	"github.com/challenge-infra/submission-runner/models"
)

// RunRepositoryGORM is a GORM implementation of the RunRepository interface.
type RunRepositoryGORM struct {
	repositories.GenericRepository[models.Run]
}

// NewRunRepository creates a new instance of RunRepositoryGORM.
func NewRunRepository(db *gorm.DB) repositories.RunRepository {
	return &RunRepositoryGORM{
		NewGenericRepository[models.Run](db),
	}
}

func (repo *RunRepositoryGORM) GetByRunID(ctx context.Context, runID string) (models.Run, error) {
	query := repo.GetQuery()
	query.Conditions = append(query.Conditions, repositories.EQ("RunID", runID))
	return repo.Find(ctx, query)
}

func (repo *RunRepositoryGORM) ListRecent(
	ctx context.Context,
	submissionID string,
	since time.Time,
	limit int,
) ([]models.Run, error) {
	query := repo.GetQuery()
	query.Instance = models.Run{SubmissionID: submissionID}
	if !since.IsZero() {
		query.Conditions = append(query.Conditions, repositories.GT("StartedAt", since))
	}
	query.SortBy = "started_at desc, id desc"
	query.Limit = limit
	return repo.FindAll(ctx, query)
}
