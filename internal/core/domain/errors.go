package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// A cache or history miss is reported with this error and is not a failure.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or acquisition strategy.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Cached analyses can still be served without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// Scan Errors.

	// ErrScopeNotFound indicates the requested subtree does not exist in the tree.
	ErrScopeNotFound = errors.New("scope not found")

	// ErrScopeNotADirectory indicates the requested subtree exists but is not a directory.
	ErrScopeNotADirectory = errors.New("scope is not a directory")

	// ErrNoAnalyzableContent indicates scanning and assembly produced zero chunks.
	ErrNoAnalyzableContent = errors.New("no analyzable content")

	// Collaborator Errors.

	// ErrAcquisition indicates the source tree could not be fetched.
	ErrAcquisition = errors.New("acquisition failed")

	// ErrAnalysisService indicates the external analyzer call failed.
	ErrAnalysisService = errors.New("analysis service failed")

	// Storage Errors.

	// ErrPersistence indicates an analysis could not be written to the result store.
	// The computed record is still returned alongside this error.
	ErrPersistence = errors.New("persistence failed")

	// ErrCorruptRecord indicates a stored record could not be decoded.
	ErrCorruptRecord = errors.New("corrupt stored record")
)

// Stage names a step of an analysis run.
type Stage string

// Analysis run stages, in execution order.
const (
	StageResolving       Stage = "resolving"
	StageCacheCheck      Stage = "cache_check"
	StageAcquiring       Stage = "acquiring"
	StageScanning        Stage = "scanning"
	StageAssembling      Stage = "assembling"
	StageExternalAnalyze Stage = "external_analyze"
	StageNormalizing     Stage = "normalizing"
	StagePersisting      Stage = "persisting"
)

// StageError records the stage at which an analysis run failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error so errors.Is matches domain sentinels.
func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage recorded in err, if any.
func FailedStage(err error) (Stage, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage, true
	}
	return "", false
}
