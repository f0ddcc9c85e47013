package backend

import (
	"github.com/challenge-infra/submission-runner/db"
	"github.com/challenge-infra/submission-runner/db/repositories"
	repositories_gorm "github.com/challenge-infra/submission-runner/db/repositories/gorm"
	"github.com/challenge-infra/submission-runner/internal/config"
)

// Ledger opens the SQLite run ledger named by db.path.
type Ledger struct{}

func (l *Ledger) OpenLedger() (repositories.RunRepository, func() error, error) {
	database, err := db.Open(config.GetConfig().DB.Path)
	if err != nil {
		return nil, nil, err
	}
	return repositories_gorm.NewRunRepository(database), func() error { return db.Close(database) }, nil
}
