package utils

import (
	"fmt"
)

// ErrorWithSuggestion wraps an error with a helpful suggestion for the user
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\nSuggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// Common error constructors with suggestions

// ErrCategoryNotFound creates an error when a category is not found
func ErrCategoryNotFound(searchTerm string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("no category found matching '%s'", searchTerm),
		Suggestion: "Run 'habittrack category list' to see available categories",
	}
}

// ErrHabitNotFound creates an error when a habit is not found
func ErrHabitNotFound(searchTerm string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("no habit found matching '%s'", searchTerm),
		Suggestion: "Run 'habittrack habit list' to see available habits",
	}
}

// ErrSyncNotEnabled creates an error when sync operations are attempted but sync is disabled
func ErrSyncNotEnabled() error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("sync is not enabled in configuration"),
		Suggestion: "Enable sync with 'habittrack sync enable' or set 'sync.enabled: true' in the config file",
	}
}

// ErrNotLoggedIn creates an error when an authenticated operation runs without a session
func ErrNotLoggedIn() error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("not logged in to the sync provider"),
		Suggestion: "Run 'habittrack sync login' first",
	}
}
