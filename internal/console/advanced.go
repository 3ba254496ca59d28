package console

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"recoveryctl/internal/errors"
	"recoveryctl/internal/log"
	"recoveryctl/internal/menu"
	"recoveryctl/internal/volume"
)

type advancedAction int

const (
	advancedReportError advancedAction = iota
	advancedShowLog
	advancedStorageTarget
	advancedPartition
)

type advancedEntry struct {
	action advancedAction
	path   string
}

// ReportLogName is the copy of the session log left on primary storage
const ReportLogName = "recovery.log"

// forceDataMedia keeps internal storage at the data media root instead of
// its 0 subfolder
const forceDataMedia = ".cwm_force_data_media"

// migratedStorage reports whether internal storage lives in <root>/0
func (c *Console) migratedStorage() bool {
	info, err := os.Stat(filepath.Join(c.dataMedia, "0"))
	if err != nil || !info.IsDir() {
		return false
	}
	_, err = os.Stat(filepath.Join(c.dataMedia, forceDataMedia))
	return os.IsNotExist(err)
}

func (c *Console) storageTargetLabel() string {
	if c.migratedStorage() {
		return "Sdcard target: " + filepath.Join(c.dataMedia, "0")
	}
	return "Sdcard target: " + c.dataMedia
}

func (c *Console) buildAdvancedMenu(ctx context.Context) func() *menu.Builder[advancedEntry] {
	return func() *menu.Builder[advancedEntry] {
		dataMedia := c.table.IsDataMedia()
		label := ""
		if dataMedia {
			if err := c.volumes.EnsureMounted(ctx, "/data"); err != nil {
				log.LogWithError(err).Debug("can't mount /data for storage target")
			}
			label = c.storageTargetLabel()
		}

		b := menu.NewBuilder[advancedEntry]().
			Add("Report Error", advancedEntry{action: advancedReportError}).
			Add("Show log", advancedEntry{action: advancedShowLog}).
			AddHidden(label, advancedEntry{action: advancedStorageTarget}, !dataMedia)
		for _, vol := range c.StorageVolumes() {
			if c.table.CanPartition(vol) {
				b.Addf(advancedEntry{action: advancedPartition, path: vol}, "Partition %s", vol)
			}
		}
		return b
	}
}

// AdvancedMenu offers log handling, the storage target switch and SD card
// partitioning
func (c *Console) AdvancedMenu(ctx context.Context) {
	runMenu(c.display, []string{"Advanced Menu"}, c.buildAdvancedMenu(ctx), func(e advancedEntry) bool {
		switch e.action {
		case advancedReportError:
			c.ReportError(ctx)
		case advancedShowLog:
			c.display.WaitKey()
		case advancedStorageTarget:
			c.ToggleStorageTarget()
		case advancedPartition:
			c.PartitionSDCard(ctx, e.path)
		}
		return false
	})
}

// ReportError copies the session log to the settings folder of primary
// storage
func (c *Console) ReportError(ctx context.Context) {
	if !c.ensureMounted(ctx, c.Primary()) {
		return
	}
	src := c.cfg.Log.File
	dst := c.cfg.SettingsPath(ReportLogName)
	if err := copyFile(src, dst); err != nil {
		c.fail(err, "Can't copy %s to %s", src, dst)
		return
	}
	c.display.Print("%s copied to %s", src, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.NewFileError("can't open log", src, errors.FileNotFound, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.NewFileError("can't create folder", filepath.Dir(dst), errors.FileCreateFailed, err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return errors.NewFileError("can't create copy", dst, errors.FileCreateFailed, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.NewFileError("can't copy log", dst, errors.FileOperationFailed, err)
	}
	return out.Close()
}

// ToggleStorageTarget switches internal storage between the data media root
// and its 0 subfolder. It takes effect after a reboot.
func (c *Console) ToggleStorageTarget() {
	if !c.table.IsDataMedia() {
		return
	}
	marker := filepath.Join(c.dataMedia, forceDataMedia)
	if c.migratedStorage() {
		if err := os.WriteFile(marker, []byte("1"), 0644); err != nil {
			c.fail(errors.NewFileError("can't write marker", marker, errors.FileOperationFailed, err), "Can't change storage target!")
			return
		}
		c.display.Print("storage set to %s", c.dataMedia)
	} else {
		target := filepath.Join(c.dataMedia, "0")
		if err := os.MkdirAll(target, 0755); err != nil {
			c.fail(errors.NewFileError("can't create folder", target, errors.FileCreateFailed, err), "Can't change storage target!")
			return
		}
		if err := os.Remove(marker); err != nil && !os.IsNotExist(err) {
			c.fail(errors.NewFileError("can't remove marker", marker, errors.FileOperationFailed, err), "Can't change storage target!")
			return
		}
		c.display.Print("storage set to %s", target)
	}
	c.display.Print("Reboot to apply settings!")
}

// Partition choices for SD cards
var (
	ExtSizes       = []string{"128M", "256M", "512M", "1024M", "2048M", "4096M"}
	SwapSizes      = []string{"0M", "32M", "64M", "128M", "256M"}
	PartitionTypes = []string{"ext3", "ext4"}
)

// PartitionSDCard repartitions the card behind path with an ext and a swap
// partition of the chosen sizes
func (c *Console) PartitionSDCard(ctx context.Context, path string) {
	if !c.table.CanPartition(path) {
		c.display.Print("Can't partition device: %s", path)
		return
	}

	ext := pick(c.display, []string{"Ext Size", ""}, ExtSizes)
	if ext < 0 {
		return
	}
	swap := pick(c.display, []string{"Swap Size", ""}, SwapSizes)
	if swap < 0 {
		return
	}
	fstype := pick(c.display, []string{"Partition Type", ""}, PartitionTypes)
	if fstype < 0 {
		return
	}

	v, _ := c.table.ForPath(path)
	device, _ := volume.PartitionDevice(v)
	disk := volume.WholeDisk(device)

	c.display.Print("Partitioning SD Card... please wait...")
	if err := c.backend.Partition(ctx, disk, ExtSizes[ext], SwapSizes[swap], PartitionTypes[fstype]); err != nil {
		c.fail(err, "An error occurred while partitioning your SD Card. Please see %s for more details.", c.cfg.Log.File)
		return
	}
	c.display.Print("Done!")
}
