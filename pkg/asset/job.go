package asset

import "context"

// Source fetches the complete content of an asset from wherever the
// migration is reading from (typically a remote service or another packmule
// store).
//
// Implementations must write the complete asset content to destPath on
// success and must not leave a partially-written file behind a nil return.
// The canonical implementation streams to a temp file and renames it into
// place (see pkg/asset/s3). FetchAsset must honor context cancellation.
type Source interface {
	FetchAsset(ctx context.Context, hash Hash, destPath string) error
}

// Progress receives transfer notifications from pipeline workers. Methods
// are invoked concurrently from multiple workers and must be safe for
// concurrent use. Message carries free-text status for humans; it is never
// machine-parsed.
type Progress interface {
	AssetQueued(sizeBytes int64)
	BytesTransferred(n int64)
	AssetCompleted()
	Message(format string, args ...any)
}

// NopProgress discards all notifications. Useful when the caller has no
// reporting surface, and as an embedding base for partial implementations.
type NopProgress struct{}

func (NopProgress) AssetQueued(int64)      {}
func (NopProgress) BytesTransferred(int64) {}
func (NopProgress) AssetCompleted()        {}
func (NopProgress) Message(string, ...any) {}

// Job is one "ensure asset present and valid" task. Exactly one Job is
// created per distinct hash per session (enforced by Registry) and it is
// consumed exactly once by a pipeline worker. Immutable after creation.
type Job struct {
	// Hash identifies the asset to materialize.
	Hash Hash

	// Size is the expected content size in bytes, used for progress
	// reporting. It does not gate verification; the digest does.
	Size int64

	// Extension, when non-empty, is the caller-supplied file extension
	// (no leading dot). A supplied extension always wins over content
	// classification.
	Extension string

	// Source provides the asset bytes when no valid local copy exists.
	Source Source

	// Progress receives this job's transfer notifications.
	Progress Progress
}
