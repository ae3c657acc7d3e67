package sources

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable matches every *SourceError via errors.Is.
var ErrSourceUnavailable = errors.New("sources: source unavailable")

// ErrNotConfigured is wrapped when a source is asked to fetch without a usable handle.
var ErrNotConfigured = errors.New("sources: handle not configured")

// SourceError reports that one upstream fetch failed or timed out.
type SourceError struct {
	Source Kind
	Err    error
}

func (e *SourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("sources: %s source unavailable", e.Source)
	}
	return fmt.Sprintf("sources: %s source unavailable: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool { return target == ErrSourceUnavailable }

// Unavailable wraps err as a *SourceError for kind. A nil err stays nil.
func Unavailable(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var se *SourceError
	if errors.As(err, &se) && se.Source == kind {
		return err
	}
	return &SourceError{Source: kind, Err: err}
}
