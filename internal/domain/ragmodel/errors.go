package ragmodel

import "fmt"

// ProviderError marks a failure of an external capability provider
// (embedding or generation backend unreachable, quota rejection). It is
// propagated by the single-pass pipeline and converted to a fallback at the
// orchestrator boundary.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// StorageError marks a failure of the indexed store backend after the
// keyword fallback was also exhausted. It surfaces to the caller as a
// retrieval failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
