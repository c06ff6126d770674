package ttkeep

import "errors"

var (
	// ErrDiskSpace indicates there is not enough free disk space to download
	// an asset. It is fatal for the run, not just for one record.
	ErrDiskSpace = errors.New("insufficient disk space")

	// ErrPermanent indicates the source post is gone, private, or otherwise
	// unavailable. Permanent failures are not retried within a run.
	ErrPermanent = errors.New("post unavailable")
)

// MinRequiredDiskSpace is the floor for free space checks when the asset
// size is unknown (50 MiB).
const MinRequiredDiskSpace uint64 = 50 * 1024 * 1024
