package store

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// DataVersion renders the fingerprint as a cache data version.
// e.g., "variants.db:1048576:1700000000000000000"
func (f FileFingerprint) DataVersion() string {
	return filepath.Base(f.Path) + ":" + strconv.FormatInt(f.Size, 10) + ":" + strconv.FormatInt(f.ModTime.UnixNano(), 10)
}
