package volume

import (
	"bufio"
	"context"
	"os"
	"strings"

	"recoveryctl/internal/errors"
	"recoveryctl/internal/log"
)

// Manager is the platform's mount control. Ensure calls are idempotent.
type Manager interface {
	EnsureMounted(ctx context.Context, path string) error
	EnsureUnmounted(ctx context.Context, path string) error
	IsMounted(path string) bool
	// IsAvailable reports whether a vold-managed volume has media present.
	// Volumes not managed by vold are always available.
	IsAvailable(mountPoint string) bool
	Share(ctx context.Context, mountPoint string) error
	Unshare(ctx context.Context, mountPoint string) error
}

// Commander runs the mount tools
type Commander interface {
	Mount(ctx context.Context, mountPoint string) error
	Unmount(ctx context.Context, mountPoint string) error
	Share(ctx context.Context, mountPoint string) error
	Unshare(ctx context.Context, mountPoint string) error
}

// SystemManager reads mount state from the kernel and changes it through
// a Commander
type SystemManager struct {
	Table *Table
	Cmd   Commander
	// MountsFile is the mount table to read, /proc/mounts by default
	MountsFile string
}

// NewSystemManager creates a manager over table
func NewSystemManager(table *Table, cmd Commander) *SystemManager {
	return &SystemManager{Table: table, Cmd: cmd, MountsFile: "/proc/mounts"}
}

func (m *SystemManager) mounted() (map[string]bool, error) {
	f, err := os.Open(m.MountsFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]bool)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) >= 2 {
			out[fields[1]] = true
		}
	}
	return out, sc.Err()
}

// IsMounted reports whether the volume holding path is mounted. Ramdisk
// volumes are always mounted.
func (m *SystemManager) IsMounted(path string) bool {
	v, ok := m.Table.ForPath(path)
	if !ok {
		return false
	}
	if v.FSType == FSRamdisk {
		return true
	}
	mounts, err := m.mounted()
	if err != nil {
		log.LogWithFields(log.F("path", m.MountsFile), log.F("error", err.Error())).Warn("can't read mount table")
		return false
	}
	return mounts[v.MountPoint]
}

func (m *SystemManager) IsAvailable(mountPoint string) bool {
	v, ok := m.Table.ForPath(mountPoint)
	if !ok {
		return false
	}
	if !v.VoldManaged {
		return true
	}
	for _, dev := range []string{v.Device, v.Device2} {
		if dev == "" {
			continue
		}
		if _, err := os.Stat(dev); err == nil {
			return true
		}
	}
	return false
}

func (m *SystemManager) volumeFor(path, operation string) (Volume, error) {
	v, ok := m.Table.ForPath(path)
	if !ok {
		return Volume{}, errors.NewVolumeError("unknown volume for path", path, operation, errors.VolumeNotFound, nil)
	}
	return v, nil
}

func (m *SystemManager) EnsureMounted(ctx context.Context, path string) error {
	v, err := m.volumeFor(path, "mount")
	if err != nil {
		return err
	}
	if m.IsMounted(v.MountPoint) {
		return nil
	}
	if err := os.MkdirAll(v.MountPoint, 0755); err != nil {
		log.LogWithFields(log.F("mount_point", v.MountPoint), log.F("error", err.Error())).Debug("can't create mount point")
	}
	if err := m.Cmd.Mount(ctx, v.MountPoint); err != nil {
		return errors.NewVolumeError("can't mount", v.MountPoint, "mount", errors.MountFailed, err)
	}
	return nil
}

func (m *SystemManager) EnsureUnmounted(ctx context.Context, path string) error {
	v, err := m.volumeFor(path, "unmount")
	if err != nil {
		return err
	}
	// The ramdisk can't be unmounted
	if v.FSType == FSRamdisk {
		return errors.NewVolumeError("can't unmount ramdisk", v.MountPoint, "unmount", errors.UnmountFailed, nil)
	}
	if !m.IsMounted(v.MountPoint) {
		return nil
	}
	if err := m.Cmd.Unmount(ctx, v.MountPoint); err != nil {
		return errors.NewVolumeError("can't unmount", v.MountPoint, "unmount", errors.UnmountFailed, err)
	}
	return nil
}

func (m *SystemManager) Share(ctx context.Context, mountPoint string) error {
	if err := m.Cmd.Share(ctx, mountPoint); err != nil {
		return errors.NewVolumeError("can't share", mountPoint, "share", errors.MountFailed, err)
	}
	return nil
}

func (m *SystemManager) Unshare(ctx context.Context, mountPoint string) error {
	if err := m.Cmd.Unshare(ctx, mountPoint); err != nil {
		return errors.NewVolumeError("can't unshare", mountPoint, "unshare", errors.UnmountFailed, err)
	}
	return nil
}

var _ Manager = (*SystemManager)(nil)
