package mind

import "errors"

// ErrMalformedSnapshot is returned by Restore when the snapshot cannot be
// decoded. The store is left empty when this happens.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// ErrUnsupportedSnapshotVersion is returned by Restore when the snapshot was
// written by a newer, incompatible version.
var ErrUnsupportedSnapshotVersion = errors.New("unsupported snapshot version")
