package domain

import "errors"

// Startup errors. The first four abort the whole startup sequence,
// ErrArchiveRegistrationFailed only affects a single archive.
var (
	ErrStorageUnavailable        = errors.New("storage unavailable")
	ErrDirectoryNotFound         = errors.New("directory not found")
	ErrEnumerationFailed         = errors.New("enumeration failed")
	ErrServerStartFailed         = errors.New("tile server start failed")
	ErrArchiveRegistrationFailed = errors.New("archive registration failed")
)
