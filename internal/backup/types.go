package backup

import (
	"io/fs"
	"time"

	"github.com/cockroachdb/errors"
)

// ManifestVersion is the manifest format version.
const ManifestVersion = 1

// DefaultRetention is the number of snapshots kept per file.
const DefaultRetention = 5

// manifestName is the manifest file inside each snapshot directory.
const manifestName = "manifest.json"

// Sentinel errors for backup operations.
var (
	// ErrNoBackups indicates no snapshot exists for the file.
	ErrNoBackups = errors.New("no backups found")

	// ErrCorrupted indicates a snapshot's contents no longer match its checksum.
	ErrCorrupted = errors.New("backup corrupted")
)

// Manifest describes one snapshot. It is stored as manifest.json in the
// snapshot directory.
type Manifest struct {
	Version   int         `json:"version"`
	CreatedAt time.Time   `json:"created_at"`
	Source    string      `json:"source"`
	SHA256    string      `json:"sha256"`
	Mode      fs.FileMode `json:"mode"`

	// ID is the snapshot directory name. It is filled in when loading.
	ID string `json:"-"`
}
