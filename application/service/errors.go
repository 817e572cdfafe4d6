// Package service provides application layer services that orchestrate
// search and embedding synchronization.
package service

import "errors"

// ErrEmptyQuery indicates the search query was empty after trimming.
// It is the only error Search returns to callers; infrastructure failures
// are absorbed into fallback responses.
var ErrEmptyQuery = errors.New("search query must not be empty")
