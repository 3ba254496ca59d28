// Package nandroid locates backups on storage volumes and measures them.
package nandroid

import (
	"io/fs"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
)

const (
	settingsDir = "clockworkmod"
	// TimestampLayout names backup folders
	TimestampLayout = "2006-01-02.15.04.05"
)

// BackupRoot is the folder holding backups on volume
func BackupRoot(volume string) string {
	return filepath.Join(volume, settingsDir, "backup")
}

// BackupPath is a fresh backup folder on volume named after now
func BackupPath(volume string, now time.Time) string {
	return filepath.Join(BackupRoot(volume), now.Format(TimestampLayout))
}

// BlobsPath is the dedupe blob store on volume
func BlobsPath(volume string) string {
	return filepath.Join(volume, settingsDir, "blobs")
}

// DefaultParts are the partitions a plain backup covers
var DefaultParts = []string{"/boot", "/system", "/data", "/cache"}

// CustomParts are the partitions offered by custom backup and restore
var CustomParts = []string{"/boot", "/recovery", "/system", "/data", "/cache", "/sd-ext", "/efs", "/preload"}

// DirSize sums the size of regular files below root. Symlinks are not
// followed.
func DirSize(root string) (int64, error) {
	var total atomic.Int64
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, the root must exist
			if path == root {
				return err
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total.Add(info.Size())
		return nil
	})
	return total.Load(), err
}
