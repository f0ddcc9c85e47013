package harness

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/challenge-infra/submission-runner/models"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		files    []string
		stopped  bool
		expected models.SubmissionStatus
	}{
		{"predictions present", []string{"predictions.csv"}, false, models.StatusValidated},
		{"predictions among other files", []string{"9999_log.txt", "predictions.csv", "model.pt"}, false, models.StatusValidated},
		{"empty directory", nil, false, models.StatusInvalid},
		{"only the log", []string{"9999_log.txt"}, false, models.StatusInvalid},
		{"wrong case", []string{"Predictions.csv"}, false, models.StatusInvalid},
		{"nested predictions", []string{"out/predictions.csv"}, false, models.StatusInvalid},
		{"stopped by the harness", []string{"predictions.csv"}, true, models.StatusInvalid},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, fs.MkdirAll("/work", 0755))
			for _, f := range tc.files {
				require.NoError(t, afero.WriteFile(fs, filepath.Join("/work", f), []byte("x"), 0644))
			}

			record, err := Classify(fs, "/work", "syn42", tc.stopped)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, record.Status)
			assert.Equal(t, "syn42", record.AdminFolder)
			if tc.expected == models.StatusInvalid {
				assert.Equal(t, models.InvalidSubmissionMessage, record.Errors)
			} else {
				assert.Empty(t, record.Errors)
			}
		})
	}
}

func TestClassifyMissingDirectory(t *testing.T) {
	record, err := Classify(afero.NewMemMapFs(), "/missing", "syn42", false)
	assert.Error(t, err)
	assert.Equal(t, models.StatusInvalid, record.Status)
}

func TestWriteResults(t *testing.T) {
	fs := afero.NewMemMapFs()

	path, err := WriteResults(fs, "/work", models.NewValidatedResult("syn42"))
	require.NoError(t, err)
	assert.Equal(t, "/work/results.json", path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, `{"submission_status":"VALIDATED","submission_errors":"","admin_folder":"syn42"}`, string(data))
}

func TestWriteResultsOverwrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/results.json", []byte(`{"stale":true}`), 0644))

	_, err := WriteResults(fs, "/work", models.NewInvalidResult(""))
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "/work/results.json")
	require.NoError(t, err)
	assert.Equal(t,
		`{"submission_status":"INVALID","submission_errors":"`+models.InvalidSubmissionMessage+`","admin_folder":""}`,
		string(data),
	)
}
