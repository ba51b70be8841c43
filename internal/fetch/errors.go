package fetch

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable marks upstream fetch failures so callers can
// distinguish them from local validation problems. The merge never runs on
// a dataset that produced one of these.
var ErrSourceUnavailable = errors.New("aggregation source unavailable")

type SourceError struct {
	Source   string
	Endpoint string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrSourceUnavailable, e.Source, e.Endpoint, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}
