package compose

import (
	"errors"
	"fmt"
)

var (
	ErrTargetInsideTemplate = errors.New("target directory is inside the template tree")
	ErrTargetNotEmpty       = errors.New("target directory already exists and is not empty")
	ErrTargetNotDirectory   = errors.New("target path exists and is not a directory")
)

// FragmentError reports a feature whose manifest injection code is not valid
// as the interior of a JSON object literal. This is a registry data-contract
// violation and always aborts the run.
type FragmentError struct {
	Feature    string
	TargetFile string
	Code       string
	Err        error
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("feature %q: invalid manifest fragment for %s: %v (code: %q)",
		e.Feature, e.TargetFile, e.Err, e.Code)
}

func (e *FragmentError) Unwrap() error {
	return e.Err
}
