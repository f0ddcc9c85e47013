package models

import "time"

// Run is one invocation of the harness as kept in the local run ledger.
type Run struct {
	ID           uint   `gorm:"primaryKey"`
	RunID        string `gorm:"uniqueIndex"`
	SubmissionID string `gorm:"index"`
	Task         string
	UnitName     string
	ContainerID  string
	Image        string
	Reused       bool
	Phase        RunPhase
	Status       SubmissionStatus
	LaunchError  string
	CleanupError string
	LogBytes     int64
	LogTruncated bool
	TimedOut     bool
	Cancelled    bool
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration returns how long the run took, or zero while it is still in flight.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
