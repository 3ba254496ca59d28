// Package volume models the device volume table and the operations the
// console needs from the platform: mount state, availability of removable
// media and USB mass storage sharing.
package volume

import (
	"strings"

	"recoveryctl/internal/config"
	"recoveryctl/internal/log"
)

// Filesystem types with special handling
const (
	FSAuto      = "auto"
	FSDataMedia = "datamedia"
	FSRamdisk   = "ramdisk"
)

// Volume is one mountable storage unit
type Volume struct {
	MountPoint  string
	FSType      string
	Device      string
	Device2     string
	VoldManaged bool
	Length      int64
}

// Table is the device volume table
type Table struct {
	vols []Volume
}

// NewTable builds a table from configured volume specs
func NewTable(specs []config.VolumeSpec) *Table {
	t := &Table{vols: make([]Volume, 0, len(specs))}
	for _, s := range specs {
		t.vols = append(t.vols, Volume{
			MountPoint:  strings.TrimSuffix(s.MountPoint, "/"),
			FSType:      s.FSType,
			Device:      s.Device,
			Device2:     s.Device2,
			VoldManaged: s.VoldManaged,
			Length:      s.Length,
		})
	}
	return t
}

// Volumes returns the table entries in order
func (t *Table) Volumes() []Volume {
	out := make([]Volume, len(t.vols))
	copy(out, t.vols)
	return out
}

// ForPath returns the volume whose mount point is the longest prefix of path
func (t *Table) ForPath(path string) (Volume, bool) {
	path = strings.TrimSuffix(path, "/")
	best := -1
	for i, v := range t.vols {
		if path != v.MountPoint && !strings.HasPrefix(path, v.MountPoint+"/") {
			continue
		}
		if best < 0 || len(v.MountPoint) > len(t.vols[best].MountPoint) {
			best = i
		}
	}
	if best < 0 {
		return Volume{}, false
	}
	return t.vols[best], true
}

// IsDataMedia reports whether internal storage lives inside /data
func (t *Table) IsDataMedia() bool {
	for _, v := range t.vols {
		if v.FSType == FSDataMedia {
			return true
		}
	}
	return false
}

// IsDataMediaPath reports whether path belongs to a data media volume
func (t *Table) IsDataMediaPath(path string) bool {
	v, ok := t.ForPath(path)
	return ok && v.FSType == FSDataMedia
}

const mmcblk = "/dev/block/mmcblk"

// PartitionDevice returns the mmcblk device backing v
func PartitionDevice(v Volume) (string, bool) {
	switch {
	case strings.Contains(v.Device, mmcblk):
		return v.Device, true
	case strings.Contains(v.Device2, mmcblk):
		return v.Device2, true
	default:
		return "", false
	}
}

// WholeDisk trims a partition suffix from an mmcblk device path, so
// /dev/block/mmcblk1p1 becomes /dev/block/mmcblk1
func WholeDisk(device string) string {
	i := strings.Index(device, mmcblk)
	if i < 0 {
		return device
	}
	end := i + len(mmcblk) + 1
	if end > len(device) {
		return device
	}
	return device[:end]
}

// CanPartition reports whether the volume at path may be repartitioned.
// It must be an auto volume on an mmcblk device that is either the whole
// disk or its first partition, and must not be data media.
func (t *Table) CanPartition(path string) bool {
	if t.IsDataMediaPath(path) {
		return false
	}
	v, ok := t.ForPath(path)
	if !ok {
		log.Infof("can't partition unknown volume: %s", path)
		return false
	}
	if v.FSType != FSAuto {
		log.Infof("can't partition non-vfat: %s (%s)", path, v.FSType)
		return false
	}
	device, ok := PartitionDevice(v)
	if !ok {
		log.Infof("can't partition non mmcblk device: %s", v.Device)
		return false
	}
	n := len(device)
	if n >= 2 && device[n-2] == 'p' && device[n-1] != '1' {
		log.Infof("can't partition unsafe device: %s", device)
		return false
	}
	return true
}
