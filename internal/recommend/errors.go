// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

package recommend

import (
	"context"
	"errors"
	"fmt"
)

// ErrTrackNotFound is returned by Explain when the track does not exist.
var ErrTrackNotFound = errors.New("track not found")

// ErrNotRecommended is returned by Explain when the track scores at or
// below the minimum threshold for this user.
var ErrNotRecommended = errors.New("track not recommended for user")

// ValidationError reports a malformed request. It is raised before any
// data access happens, so a validation failure never touches the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}

// DataAccessError wraps a store failure. The engine never propagates it
// to callers of Recommend; it degrades to an empty response instead.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("data access failed during %s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsCancellation reports whether err stems from context cancellation or
// deadline expiry. Cancellation is kept distinct from data-access failure
// so callers can tell an aborted request from a degraded one.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
