package harness

import (
	"github.com/spf13/afero"

	"github.com/challenge-infra/submission-runner/models"
)

// Classify decides the terminal status of a run from the contents of its output directory.
// The run is VALIDATED iff predictions.csv sits at the root of outputDir and the unit was not
// stopped by the harness. A directory that cannot be read classifies as INVALID and the read
// error is returned alongside the record.
func Classify(fs afero.Fs, outputDir, adminFolder string, stopped bool) (models.ResultRecord, error) {
	if stopped {
		return models.NewInvalidResult(adminFolder), nil
	}

	entries, err := afero.ReadDir(fs, outputDir)
	if err != nil {
		return models.NewInvalidResult(adminFolder), err
	}

	for _, entry := range entries {
		if entry.Name() == models.PredictionsFile {
			return models.NewValidatedResult(adminFolder), nil
		}
	}
	return models.NewInvalidResult(adminFolder), nil
}
