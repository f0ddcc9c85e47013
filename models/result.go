package models

// SubmissionStatus is the terminal classification of a run.
type SubmissionStatus string

const (
	StatusValidated SubmissionStatus = "VALIDATED"
	StatusInvalid   SubmissionStatus = "INVALID"
)

// InvalidSubmissionMessage is shown to participants whenever a run is classified INVALID.
const InvalidSubmissionMessage = "Error encountered while running your Docker container; contact " +
	"the Challenge Organizers in the Discussion Board for more info."

// ResultRecord is written to results.json once the unit has been reaped.
type ResultRecord struct {
	Status      SubmissionStatus `json:"submission_status"`
	Errors      string           `json:"submission_errors"`
	AdminFolder string           `json:"admin_folder"`
}

// NewValidatedResult returns a VALIDATED record owned by the given folder.
func NewValidatedResult(adminFolder string) ResultRecord {
	return ResultRecord{
		Status:      StatusValidated,
		Errors:      "",
		AdminFolder: adminFolder,
	}
}

// NewInvalidResult returns an INVALID record carrying the participant facing message.
func NewInvalidResult(adminFolder string) ResultRecord {
	return ResultRecord{
		Status:      StatusInvalid,
		Errors:      InvalidSubmissionMessage,
		AdminFolder: adminFolder,
	}
}
