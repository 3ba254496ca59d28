package types

import (
	"fmt"
	"strings"
)

// BackupFormat is the nandroid archive format recorded on primary storage
type BackupFormat string

const (
	// FormatTar is a plain tar archive per partition (the default)
	FormatTar BackupFormat = "tar"
	// FormatDup is the deduplicating blob store
	FormatDup BackupFormat = "dup"
	// FormatTgz is a gzip-compressed tar archive
	FormatTgz BackupFormat = "tgz"
)

// BackupFormats lists the formats in menu order
var BackupFormats = []BackupFormat{FormatTar, FormatDup, FormatTgz}

// ParseBackupFormat parses the persisted token
func ParseBackupFormat(s string) (BackupFormat, error) {
	switch f := BackupFormat(strings.TrimSpace(s)); f {
	case FormatTar, FormatDup, FormatTgz:
		return f, nil
	default:
		return "", fmt.Errorf("unknown backup format: %q", s)
	}
}

func (f BackupFormat) String() string {
	return string(f)
}
