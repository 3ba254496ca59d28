package console

import (
	"context"

	"recoveryctl/internal/backend"
	"recoveryctl/internal/log"
	"recoveryctl/internal/menu"
	"recoveryctl/internal/volume"
)

type mountEntry struct {
	usb        bool
	mountPoint string
}

func (c *Console) buildMountsMenu() *menu.Builder[mountEntry] {
	b := menu.NewBuilder[mountEntry]()
	for _, v := range c.presentVolumes() {
		if !c.overrides.Capabilities(v).CanMount {
			continue
		}
		if c.volumes.IsMounted(v.MountPoint) {
			b.Addf(mountEntry{mountPoint: v.MountPoint}, "unmount %s", v.MountPoint)
		} else {
			b.Addf(mountEntry{mountPoint: v.MountPoint}, "mount %s", v.MountPoint)
		}
	}
	return b.Add("mount USB storage", mountEntry{usb: true})
}

// MountsMenu toggles the mount state of every mountable volume
func (c *Console) MountsMenu(ctx context.Context) {
	runMenu(c.display, []string{"Mounts and Storage Menu"}, c.buildMountsMenu, func(e mountEntry) bool {
		if e.usb {
			c.USBStorage(ctx)
			return false
		}
		if c.volumes.IsMounted(e.mountPoint) {
			if err := c.volumes.EnsureUnmounted(ctx, e.mountPoint); err != nil {
				c.fail(err, "Error unmounting %s!", e.mountPoint)
			}
			return false
		}
		if err := c.volumes.EnsureMounted(ctx, e.mountPoint); err != nil {
			c.fail(err, "Error mounting %s!", e.mountPoint)
		}
		return false
	})
}

// voldVolumes returns the vold volumes with media present
func (c *Console) voldVolumes() []string {
	var out []string
	for _, v := range c.table.Volumes() {
		if v.VoldManaged && c.volumes.IsAvailable(v.MountPoint) {
			out = append(out, v.MountPoint)
		}
	}
	return out
}

// USBStorage shares every available vold volume over USB until the
// operator chooses Unmount or backs out
func (c *Console) USBStorage(ctx context.Context) {
	var shared []string
	for _, mp := range c.voldVolumes() {
		if err := c.volumes.Share(ctx, mp); err != nil {
			c.fail(err, "Can't share %s", mp)
			continue
		}
		shared = append(shared, mp)
	}
	if len(shared) == 0 {
		c.display.Print("No storage to share.")
		return
	}
	defer func() {
		for _, mp := range shared {
			if err := c.volumes.Unshare(ctx, mp); err != nil {
				c.fail(err, "Can't unshare %s", mp)
			}
		}
	}()

	headers := []string{
		"USB Mass Storage device",
		"Leaving this menu unmounts",
		"your SD card from your PC.",
		"",
	}
	pick(c.display, headers, []string{"Unmount"})
}

type formatEntry struct {
	dataMedia  bool
	mountPoint string
	fsType     string
}

const formatDataMediaLabel = "format /data and /data/media (/sdcard)"

func (c *Console) buildFormatMenu() *menu.Builder[formatEntry] {
	b := menu.NewBuilder[formatEntry]()
	for _, v := range c.presentVolumes() {
		if !c.overrides.Capabilities(v).CanFormat {
			continue
		}
		b.Addf(formatEntry{mountPoint: v.MountPoint, fsType: v.FSType}, "format %s", v.MountPoint)
	}
	if c.table.IsDataMedia() {
		b.Add(formatDataMediaLabel, formatEntry{dataMedia: true})
	}
	return b
}

// FormatMenu formats a chosen volume after confirmation. Removable auto
// volumes open the filesystem picker instead.
func (c *Console) FormatMenu(ctx context.Context) {
	if len(c.table.Volumes()) == 0 {
		c.display.Print("Empty volume table!")
		return
	}
	runMenu(c.display, []string{"Format partitions menu"}, c.buildFormatMenu, func(e formatEntry) bool {
		if e.dataMedia {
			if !c.gate.Confirm(formatDataMediaLabel, "Yes - Format") {
				return false
			}
			c.formatVolume(ctx, "/data", backend.FormatOptions{WipeMedia: true})
			return false
		}
		if e.fsType == volume.FSAuto {
			v, _ := c.table.ForPath(e.mountPoint)
			if v.VoldManaged || c.table.CanPartition(e.mountPoint) {
				c.FormatSDCard(ctx, e.mountPoint)
				return false
			}
		}
		if !c.gate.Confirm(e.mountPoint+" - Confirm format?", "Yes - Format") {
			return false
		}
		c.formatVolume(ctx, e.mountPoint, backend.FormatOptions{})
		return false
	})
}

func (c *Console) formatVolume(ctx context.Context, mountPoint string, opts backend.FormatOptions) {
	c.display.Print("Formatting %s...", mountPoint)
	if err := c.backend.FormatVolume(ctx, mountPoint, opts); err != nil {
		c.fail(err, "Error formatting %s!", mountPoint)
		return
	}
	c.display.Print("Done.")
}

// SDCardFilesystems are offered when formatting removable media. The first
// entry keeps the volume's configured filesystem.
var SDCardFilesystems = []string{"default", "ext2", "ext3", "ext4", "vfat", "exfat", "ntfs"}

// FormatSDCard formats a removable auto volume with a filesystem the
// operator picks
func (c *Console) FormatSDCard(ctx context.Context, path string) {
	if c.table.IsDataMediaPath(path) {
		return
	}
	v, ok := c.table.ForPath(path)
	if !ok || v.FSType != volume.FSAuto {
		return
	}
	if !v.VoldManaged && !c.table.CanPartition(path) {
		return
	}

	chosen := pick(c.display, []string{"Format device:", path, ""}, SDCardFilesystems)
	if chosen < 0 {
		return
	}
	if !c.gate.Confirm("Confirm formatting?", "Yes - Format device") {
		return
	}
	if err := c.volumes.EnsureUnmounted(ctx, v.MountPoint); err != nil {
		c.fail(err, "Can't unmount %s", v.MountPoint)
		return
	}

	fstype := SDCardFilesystems[chosen]
	var err error
	switch fstype {
	case "default":
		err = c.backend.FormatVolume(ctx, v.MountPoint, backend.FormatOptions{})
	case "ext2", "ext3":
		// The second node is the one prebuilt ext tools recognize on vold volumes
		device := v.Device2
		if device == "" {
			device = v.Device
		}
		err = c.backend.FormatDevice(ctx, device, v.MountPoint, fstype)
	default:
		err = c.backend.FormatDevice(ctx, v.Device, v.MountPoint, fstype)
	}
	if err != nil {
		c.fail(err, "Could not format %s (%s)", path, fstype)
		return
	}
	log.LogWithFields(log.F("mount_point", v.MountPoint), log.F("fstype", fstype)).Info("volume formatted")
	c.display.Print("Done formatting %s (%s)", path, fstype)
}
