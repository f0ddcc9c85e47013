package harness

import (
	"encoding/json"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/challenge-infra/submission-runner/models"
)

// WriteResults writes record as compact JSON to results.json in dir and returns the file path.
func WriteResults(fs afero.Fs, dir string, record models.ResultRecord) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode result record")
	}

	path := filepath.Join(dir, models.ResultsFile)
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	return path, nil
}
