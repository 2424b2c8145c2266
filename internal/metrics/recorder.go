// Package metrics exposes export run observations. The Recorder is optional: callers that do not
// configure one use NoopRecorder.
package metrics

import "time"

// Outcome labels a finished run.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Stage names a timed section of a run.
type Stage string

const (
	StageTree     Stage = "tree"
	StageContent  Stage = "content"
	StageAssemble Stage = "assemble"
)

// FileCount names the counted file populations of a run.
type FileCount string

const (
	FilesListed   FileCount = "listed"
	FilesSelected FileCount = "selected"
	FilesResolved FileCount = "resolved"
)

// Recorder receives export observations.
type Recorder interface {
	ObserveRun(outcome Outcome, kind string, duration time.Duration)
	ObserveStage(stage Stage, duration time.Duration)
	AddFiles(population FileCount, count int)
	AddDocumentBytes(count int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveRun(Outcome, string, time.Duration) {}
func (NoopRecorder) ObserveStage(Stage, time.Duration)         {}
func (NoopRecorder) AddFiles(FileCount, int)                   {}
func (NoopRecorder) AddDocumentBytes(int)                      {}
