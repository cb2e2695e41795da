// Package backup keeps snapshots of Claude Code settings files so hook
// installation can be undone.
//
// Each settings file gets its own directory, keyed by a hash of its absolute
// path, so the project settings of different repositories never mix:
//
//	<backup dir>/
//	└── {key}/
//	    └── {timestamp}/
//	        ├── manifest.json
//	        └── settings.json
//
// The manifest records where the file came from, its permissions and a
// SHA256 checksum. [Manager.Restore] refuses a snapshot whose checksum no
// longer matches with [ErrCorrupted].
//
// # Usage
//
//	mgr := backup.NewManager()
//	m, err := mgr.Backup("/repo/.claude/settings.json")
//	...
//	err = mgr.Restore("/repo/.claude/settings.json", m.ID)
//
// Only the most recent [DefaultRetention] snapshots per file are kept.
package backup
