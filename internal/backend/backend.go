// Package backend dispatches console actions to the external tools that
// implement them. Each tool is described by a command template from the
// configuration.
package backend

import (
	"context"

	"recoveryctl/pkg/types"
)

// InstallOptions are the install toggles in effect for one package
type InstallOptions struct {
	SignatureCheck bool
	VerifyMD5      bool
}

// FormatOptions select what a volume format removes besides the filesystem
type FormatOptions struct {
	// WipeMedia also removes internal storage kept under /data/media on
	// data media devices. Without it that folder survives a /data format.
	WipeMedia bool
}

// Installer applies update packages
type Installer interface {
	Install(ctx context.Context, path string, opts InstallOptions) error
	Sideload(ctx context.Context, opts InstallOptions) error
}

// Formatter wipes volumes
type Formatter interface {
	// FormatVolume formats a volume with its configured filesystem
	FormatVolume(ctx context.Context, mountPoint string, opts FormatOptions) error
	// FormatDevice formats a block device with an explicit filesystem
	FormatDevice(ctx context.Context, device, mountPoint, fstype string) error
}

// Nandroid runs full-device backups and restores
type Nandroid interface {
	Backup(ctx context.Context, dir string, format types.BackupFormat, parts []string) error
	Restore(ctx context.Context, dir string, parts []string) error
	DedupeGC(ctx context.Context, blobs string) error
}

// Partitioner repartitions removable cards
type Partitioner interface {
	Partition(ctx context.Context, device, extSize, swapSize, fstype string) error
}

// Volumes mounts and shares volumes
type Volumes interface {
	Mount(ctx context.Context, mountPoint string) error
	Unmount(ctx context.Context, mountPoint string) error
	Share(ctx context.Context, mountPoint string) error
	Unshare(ctx context.Context, mountPoint string) error
}
