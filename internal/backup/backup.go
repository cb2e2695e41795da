package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/thoreinstein/plugkit/internal/paths"
	"github.com/thoreinstein/plugkit/pkg/fileutil"
)

// idLayout names snapshot directories; it sorts chronologically.
const idLayout = "20060102T150405"

// Manager creates, lists and restores snapshots.
type Manager struct {
	rootDir   string
	retention int
	now       func() time.Time
	writeFile func(path string, data []byte, perm os.FileMode) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithDir sets the root backup directory.
func WithDir(dir string) Option {
	return func(m *Manager) {
		m.rootDir = dir
	}
}

// WithRetention sets the number of snapshots kept per file.
func WithRetention(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.retention = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// DefaultDir returns <config dir>/backups.
func DefaultDir() string {
	return filepath.Join(paths.AppConfigDir(), "backups")
}

// NewManager creates a Manager storing snapshots under DefaultDir.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		rootDir:   DefaultDir(),
		retention: DefaultRetention,
		now:       time.Now,
		writeFile: fileutil.AtomicWriteFile,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Backup snapshots src and prunes old snapshots. A missing src has nothing
// to preserve: Backup returns a nil manifest and no error.
func (m *Manager) Backup(src string) (manifest *Manifest, err error) {
	src, err = filepath.Abs(src)
	if err != nil {
		return nil, errors.Wrap(err, "resolving path")
	}
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "stat %s", src)
	}
	if info.IsDir() {
		return nil, errors.Newf("%s is a directory", src)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", src)
	}

	created := m.now().UTC()
	id, dir, err := m.reserve(src, created)
	if err != nil {
		return nil, err
	}

	// A half-written snapshot must not be listed.
	defer func() {
		if manifest == nil && err != nil {
			_ = os.RemoveAll(dir)
		}
	}()

	if err := m.writeFile(filepath.Join(dir, filepath.Base(src)), data, info.Mode().Perm()); err != nil {
		return nil, errors.Wrap(err, "writing snapshot")
	}

	manifest = &Manifest{
		Version:   ManifestVersion,
		CreatedAt: created,
		Source:    src,
		SHA256:    checksum(data),
		Mode:      info.Mode().Perm(),
		ID:        id,
	}
	if err := fileutil.AtomicWriteJSON(filepath.Join(dir, manifestName), manifest); err != nil {
		manifest = nil
		return nil, errors.Wrap(err, "writing manifest")
	}

	if err := m.Prune(src, m.retention); err != nil {
		return manifest, errors.Wrap(err, "pruning old backups")
	}
	return manifest, nil
}

// reserve creates a fresh snapshot directory. Snapshots taken within the
// same second get a numeric suffix.
func (m *Manager) reserve(src string, created time.Time) (id, dir string, err error) {
	base := created.Format(idLayout)
	for n := 0; ; n++ {
		id = base
		if n > 0 {
			id = fmt.Sprintf("%s-%d", base, n)
		}
		dir = m.snapshotDir(src, id)
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			return "", "", errors.Wrap(err, "creating backup directory")
		}
		err = os.Mkdir(dir, 0o755)
		if err == nil {
			return id, dir, nil
		}
		if !os.IsExist(err) {
			return "", "", errors.Wrap(err, "creating backup directory")
		}
	}
}

// List returns the snapshots of src, newest first.
func (m *Manager) List(src string) ([]Manifest, error) {
	src, err := filepath.Abs(src)
	if err != nil {
		return nil, errors.Wrap(err, "resolving path")
	}

	entries, err := os.ReadDir(m.fileDir(src))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoBackups
		}
		return nil, errors.Wrap(err, "reading backup directory")
	}

	manifests := make([]Manifest, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifest, err := m.Get(src, entry.Name())
		if err != nil {
			// Skip invalid snapshot directories
			continue
		}
		manifests = append(manifests, *manifest)
	}
	if len(manifests) == 0 {
		return nil, ErrNoBackups
	}

	slices.SortFunc(manifests, func(a, b Manifest) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(b.ID, a.ID)
	})
	return manifests, nil
}

// compareIDs orders ids of the same second by their numeric suffix.
func compareIDs(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Get loads the manifest of one snapshot of src.
func (m *Manager) Get(src, id string) (*Manifest, error) {
	if id == "" {
		return nil, errors.New("backup ID is required")
	}
	src, err := filepath.Abs(src)
	if err != nil {
		return nil, errors.Wrap(err, "resolving path")
	}

	data, err := os.ReadFile(filepath.Join(m.snapshotDir(src, id), manifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNoBackups, "backup %s not found", id)
		}
		return nil, errors.Wrap(err, "reading manifest")
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrap(err, "parsing manifest")
	}
	manifest.ID = id
	return &manifest, nil
}

// Restore writes a snapshot back over src. An empty id restores the most
// recent snapshot. The restored manifest is returned.
func (m *Manager) Restore(src, id string) (*Manifest, error) {
	var manifest *Manifest
	if id == "" {
		all, err := m.List(src)
		if err != nil {
			return nil, err
		}
		manifest = &all[0]
	} else {
		var err error
		if manifest, err = m.Get(src, id); err != nil {
			return nil, err
		}
	}

	snapshot := filepath.Join(m.snapshotDir(manifest.Source, manifest.ID), filepath.Base(manifest.Source))
	data, err := os.ReadFile(snapshot)
	if err != nil {
		return nil, errors.Wrapf(err, "reading backup %s", manifest.ID)
	}
	if checksum(data) != manifest.SHA256 {
		return nil, errors.Wrapf(ErrCorrupted, "backup %s checksum mismatch", manifest.ID)
	}

	if err := fileutil.AtomicWriteFile(manifest.Source, data, manifest.Mode); err != nil {
		return nil, errors.Wrapf(err, "restoring %s", manifest.Source)
	}
	return manifest, nil
}

// Prune removes all but the keep most recent snapshots of src.
func (m *Manager) Prune(src string, keep int) error {
	if keep < 0 {
		return errors.New("keep must be non-negative")
	}

	manifests, err := m.List(src)
	if err != nil {
		if errors.Is(err, ErrNoBackups) {
			return nil
		}
		return err
	}

	for i := keep; i < len(manifests); i++ {
		if err := os.RemoveAll(m.snapshotDir(manifests[i].Source, manifests[i].ID)); err != nil {
			return errors.Wrapf(err, "removing backup %s", manifests[i].ID)
		}
	}
	return nil
}

// fileDir returns the directory holding every snapshot of src.
func (m *Manager) fileDir(src string) string {
	sum := sha256.Sum256([]byte(src))
	return filepath.Join(m.rootDir, hex.EncodeToString(sum[:8]))
}

func (m *Manager) snapshotDir(src, id string) string {
	return filepath.Join(m.fileDir(src), id)
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
