package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/clipforge/api/internal/model"
)

// Outcome is the result of one stage execution. Exactly one of the
// typed result pointers is set for COMPLETED outcomes; SKIPPED and
// POLLING outcomes carry only a message.
type Outcome struct {
	Status  model.StageStatus
	Message string

	Fetch      *model.FetchResult
	Transcribe *model.TranscribeResult
	Analyze    *model.AnalyzeResult
	Clip       *model.ClipStageResult
	Publish    *model.PublishResult
}

// Completed builds a COMPLETED outcome with a human-readable summary
func Completed(format string, args ...interface{}) *Outcome {
	return &Outcome{
		Status:  model.StageStatusCompleted,
		Message: fmt.Sprintf(format, args...),
	}
}

// Skipped builds a SKIPPED outcome. A skipped stage counts as done for
// advancement purposes.
func Skipped(format string, args ...interface{}) *Outcome {
	return &Outcome{
		Status:  model.StageStatusSkipped,
		Message: fmt.Sprintf(format, args...),
	}
}

// Polling builds a POLLING outcome: the stage started work with an
// external vendor and must be re-entered later to collect it.
func Polling(format string, args ...interface{}) *Outcome {
	return &Outcome{
		Status:  model.StageStatusPolling,
		Message: fmt.Sprintf(format, args...),
	}
}

// Record converts the outcome into a persisted stage record
func (o *Outcome) Record(now time.Time) model.StageRecord {
	return model.StageRecord{
		Status:     o.Status,
		Timestamp:  now,
		Message:    o.Message,
		Fetch:      o.Fetch,
		Transcribe: o.Transcribe,
		Analyze:    o.Analyze,
		Clip:       o.Clip,
		Publish:    o.Publish,
	}
}

// ErrorKind classifies a stage failure
type ErrorKind int

const (
	// KindTransient failures are expected to clear on a later advance
	// of the same stage.
	KindTransient ErrorKind = iota
	// KindFatal failures additionally emit the pipeline-failed event
	// to watchers.
	KindFatal
)

// StageError wraps a stage failure with its retry classification
type StageError struct {
	Kind ErrorKind
	Err  error
}

func (e *StageError) Error() string {
	return e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a retryable stage failure
func Transient(err error) error {
	return &StageError{Kind: KindTransient, Err: err}
}

// Fatal wraps err as a non-retryable stage failure
func Fatal(err error) error {
	return &StageError{Kind: KindFatal, Err: err}
}

// KindOf extracts the classification from a stage error, defaulting
// unclassified errors to transient.
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindTransient
}
