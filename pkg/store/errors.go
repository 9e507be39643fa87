package store

import "errors"

// Standard store errors. Implementations wrap these with context:
//
//	if locked {
//	    return fmt.Errorf("store at %s: %w", basePath, store.ErrStoreInUse)
//	}
//
// Callers discriminate with errors.Is.

var (
	// ErrStoreInUse indicates the store directory is locked by another
	// process or session. Only Prepare can fail with this error; the caller
	// should abort the session and surface an actionable message rather
	// than retrying blindly.
	ErrStoreInUse = errors.New("store is in use by another process")

	// ErrCorruptEntity indicates a stored entity file exists but failed to
	// deserialize. Local data corruption is never silently masked: the read
	// that hit the file fails, and no automatic repair is attempted.
	ErrCorruptEntity = errors.New("corrupt entity file")

	// ErrAssetNotFound indicates no file resolves for the requested asset
	// hash. Returned by ReadAsset and DownloadAsset; GetAssetSize reports a
	// missing asset as size 0 instead.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrIntegrityCheckFailed indicates an existing asset file's digest did
	// not match its claimed hash. The pipeline treats this as "file absent"
	// and re-fetches; it is not surfaced to callers of the public API.
	ErrIntegrityCheckFailed = errors.New("asset integrity check failed")
)
