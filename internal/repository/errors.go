package repository

import "errors"

// ErrNotFound is returned when a requested record is not found in the repository.
// Callers never see sql.ErrNoRows or driver-specific errors for missing rows.
var ErrNotFound = errors.New("record not found")
