package models

import "fmt"

const (
	// PredictionsFile is the artifact a submission must leave at the root of /output.
	PredictionsFile = "predictions.csv"
	// ResultsFile holds the terminal ResultRecord consumed by the surrounding pipeline.
	ResultsFile = "results.json"

	OutputMountPath = "/output"
	InputMountPath  = "/input"
)

// UnitState is the lifecycle state of an execution unit as seen by the engine.
type UnitState string

const (
	UnitCreated    UnitState = "created"
	UnitRunning    UnitState = "running"
	UnitTerminated UnitState = "terminated"
)

// ExecutionUnit is the sandboxed container running one submission for one task.
type ExecutionUnit struct {
	Name        string    // {submissionid}_task{task}
	ContainerID string    // engine identifier
	Image       string    // backing image reference
	State       UnitState // last observed state
	Reused      bool      // true when an already active unit was reconnected to
}

// UnitName returns the deterministic execution unit name for a submission/task pair.
func UnitName(submissionID, task string) string {
	return fmt.Sprintf("%s_task%s", submissionID, task)
}

// LogFileName returns the name of the local log artifact for a submission.
func LogFileName(submissionID string) string {
	return fmt.Sprintf("%s_log.txt", submissionID)
}

// ImageReference joins a repository and a content digest into a pullable reference.
func ImageReference(repository, digest string) string {
	return repository + "@" + digest
}

// AccessMode is the access a container gets on a bind mount.
type AccessMode string

const (
	ReadOnly  AccessMode = "ro"
	ReadWrite AccessMode = "rw"
)

// MountSpec binds a host path into the container.
type MountSpec struct {
	HostPath      string
	ContainerPath string
	Mode          AccessMode
}

// Bind renders the mount in the engine's host:container:mode form.
func (m MountSpec) Bind() string {
	return fmt.Sprintf("%s:%s:%s", m.HostPath, m.ContainerPath, m.Mode)
}

// RunPhase tracks where a run is in its lifecycle. CLASSIFIED is terminal.
type RunPhase string

const (
	PhaseAbsent       RunPhase = "ABSENT"
	PhaseRunning      RunPhase = "RUNNING"
	PhaseTerminated   RunPhase = "TERMINATED"
	PhaseLogFinalized RunPhase = "LOG_FINALIZED"
	PhaseReaped       RunPhase = "REAPED"
	PhaseClassified   RunPhase = "CLASSIFIED"
)
