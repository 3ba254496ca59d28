package console

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"recoveryctl/internal/confirm"
	"recoveryctl/internal/errors"
	"recoveryctl/internal/log"
	"recoveryctl/internal/menu"
	"recoveryctl/internal/nandroid"
	"recoveryctl/internal/scan"
	"recoveryctl/pkg/types"

	"github.com/dustin/go-humanize"
)

type nandroidAction int

const (
	nandroidBackup nandroidAction = iota
	nandroidRestore
	nandroidDelete
	nandroidCustomBackup
	nandroidCustomRestore
	nandroidClone
	nandroidFreeUnused
	nandroidMisc
)

type nandroidEntry struct {
	action nandroidAction
	volume string
}

func (c *Console) buildNandroidMenu() *menu.Builder[nandroidEntry] {
	b := menu.NewBuilder[nandroidEntry]()
	for _, vol := range c.StorageVolumes() {
		b.Addf(nandroidEntry{nandroidBackup, vol}, "Backup to %s", vol)
		b.Addf(nandroidEntry{nandroidRestore, vol}, "Restore from %s", vol)
		b.Addf(nandroidEntry{nandroidDelete, vol}, "Delete from %s", vol)
		b.Addf(nandroidEntry{nandroidCustomBackup, vol}, "Custom Backup to %s", vol)
		b.Addf(nandroidEntry{nandroidCustomRestore, vol}, "Custom Restore from %s", vol)
	}
	return b.
		Add("Clone ROM to update.zip", nandroidEntry{action: nandroidClone}).
		Add("Free Unused Backup Data", nandroidEntry{action: nandroidFreeUnused}).
		Add("Misc Nandroid Settings", nandroidEntry{action: nandroidMisc})
}

// NandroidMenu offers backup, restore and delete on every storage volume
func (c *Console) NandroidMenu(ctx context.Context) {
	runMenu(c.display, []string{"Backup and Restore"}, c.buildNandroidMenu, func(e nandroidEntry) bool {
		switch e.action {
		case nandroidBackup:
			c.Backup(ctx, e.volume, nandroid.DefaultParts)
		case nandroidRestore:
			c.Restore(ctx, e.volume)
		case nandroidDelete:
			c.DeleteBackups(ctx, e.volume)
		case nandroidCustomBackup:
			c.CustomBackup(ctx, e.volume)
		case nandroidCustomRestore:
			c.CustomRestore(ctx, e.volume)
		case nandroidClone:
			c.display.Print("Clone ROM to update.zip is not supported.")
		case nandroidFreeUnused:
			c.FreeUnusedBackupData(ctx)
		case nandroidMisc:
			c.ChooseDefaultBackupFormat()
		}
		return false
	})
}

// Backup writes a new timestamped backup of parts to vol
func (c *Console) Backup(ctx context.Context, vol string, parts []string) {
	if !c.ensureMounted(ctx, vol) {
		return
	}
	dir := nandroid.BackupPath(vol, c.now())
	format := c.store.BackupFormat()
	log.LogWithFields(log.F("dir", dir), log.F("format", format.String()), log.F("parts", parts)).Info("starting backup")

	c.display.Print("Backing up to %s...", dir)
	if err := c.backend.Backup(ctx, dir, format, parts); err != nil {
		c.fail(err, "Error while making a backup image!")
		return
	}
	c.display.Print("Backup complete!")
}

func (c *Console) chooseBackup(ctx context.Context, vol, title string) (string, bool) {
	if !c.ensureMounted(ctx, vol) {
		return "", false
	}
	res := c.selector.Select(nandroid.BackupRoot(vol), scan.DirsOnly(), []string{title})
	return res.Path, res.OK()
}

// Restore restores a backup chosen from vol after confirmation
func (c *Console) Restore(ctx context.Context, vol string) {
	dir, ok := c.chooseBackup(ctx, vol, "Choose an image to restore")
	if !ok {
		return
	}
	if !c.gate.Confirm("Confirm restore?", "Yes - Restore") {
		return
	}
	c.restore(ctx, dir, nandroid.DefaultParts)
}

func (c *Console) restore(ctx context.Context, dir string, parts []string) {
	c.display.Print("Restoring %s...", filepath.Base(dir))
	if err := c.backend.Restore(ctx, dir, parts); err != nil {
		c.fail(err, "Error while restoring %s!", filepath.Base(dir))
		return
	}
	c.display.Print("Restore complete!")
}

// DeleteBackups keeps offering the backups on vol for deletion until the
// operator backs out
func (c *Console) DeleteBackups(ctx context.Context, vol string) {
	for {
		dir, ok := c.chooseBackup(ctx, vol, "Choose a backup to delete")
		if !ok {
			return
		}
		base := filepath.Base(dir)
		size := "unknown size"
		if n, err := nandroid.DirSize(dir); err == nil {
			size = humanize.Bytes(uint64(n))
		}
		headers := []string{"Confirm delete?", fmt.Sprintf("  %s (%s)", base, size), confirm.Warning, ""}
		if !c.gate.ConfirmWithHeaders(headers, "Yes - Delete "+base) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			c.fail(errors.NewFileError("can't delete backup", dir, errors.FileOperationFailed, err), "Error deleting %s!", base)
			continue
		}
		c.display.Print("Deleted %s", base)
	}
}

// choosePartitions lets the operator tick the partitions present on the
// device. It returns false if the operator backs out.
func (c *Console) choosePartitions(title, start string) ([]string, bool) {
	const startAction = ""
	selected := make(map[string]bool)
	done := false

	build := func() *menu.Builder[string] {
		b := menu.NewBuilder[string]()
		for _, p := range nandroid.CustomParts {
			b.AddHidden(toggleLabel(selected[p], p), p, !c.hasVolume(p))
		}
		return b.Add(start, startAction)
	}
	runMenu(c.display, []string{title, ""}, build, func(p string) bool {
		if p != startAction {
			selected[p] = !selected[p]
			return false
		}
		if !anySelected(selected) {
			c.display.Print("No partitions selected.")
			return false
		}
		done = true
		return true
	})
	if !done {
		return nil, false
	}

	parts := make([]string, 0, len(selected))
	for _, p := range nandroid.CustomParts {
		if selected[p] {
			parts = append(parts, p)
		}
	}
	return parts, true
}

func anySelected(m map[string]bool) bool {
	for _, on := range m {
		if on {
			return true
		}
	}
	return false
}

// CustomBackup backs up the partitions the operator picks
func (c *Console) CustomBackup(ctx context.Context, vol string) {
	parts, ok := c.choosePartitions("Custom Backup to "+vol, "Start Custom Backup")
	if !ok {
		return
	}
	c.Backup(ctx, vol, parts)
}

// CustomRestore restores the partitions the operator picks from a chosen
// backup
func (c *Console) CustomRestore(ctx context.Context, vol string) {
	dir, ok := c.chooseBackup(ctx, vol, "Choose an image to restore")
	if !ok {
		return
	}
	parts, ok := c.choosePartitions("Custom Restore from "+filepath.Base(dir), "Start Custom Restore")
	if !ok {
		return
	}
	if !c.gate.Confirm("Confirm restore?", "Yes - Restore") {
		return
	}
	c.restore(ctx, dir, parts)
}

// FreeUnusedBackupData collects unreferenced dedupe blobs on primary
// storage and every extra volume
func (c *Console) FreeUnusedBackupData(ctx context.Context) {
	vols := append([]string{c.Primary()}, c.cfg.Storage.Extra...)
	for _, vol := range vols {
		if err := c.volumes.EnsureMounted(ctx, vol); err != nil {
			log.LogWithError(err).Warn("skipping dedupe gc")
			continue
		}
		blobs := nandroid.BlobsPath(vol)
		c.display.Print("Freeing space in %s...", blobs)
		if err := c.backend.DedupeGC(ctx, blobs); err != nil {
			c.fail(err, "Error freeing space in %s!", blobs)
		}
	}
	c.display.Print("Done.")
}

var backupFormatNames = map[types.BackupFormat]struct{ label, done string }{
	types.FormatTar: {"tar", "tar"},
	types.FormatDup: {"dup", "dedupe"},
	types.FormatTgz: {"tar + gzip", "tar + gzip"},
}

// ChooseDefaultBackupFormat records the archive format used for new backups
func (c *Console) ChooseDefaultBackupFormat() {
	current := c.store.BackupFormat()
	items := make([]string, len(types.BackupFormats))
	for i, f := range types.BackupFormats {
		items[i] = backupFormatNames[f].label
		if f == current {
			items[i] += " (default)"
		}
	}

	chosen := pick(c.display, []string{"Default Backup Format", ""}, items)
	if chosen < 0 {
		return
	}
	f := types.BackupFormats[chosen]
	if err := c.store.WriteBackupFormat(f); err != nil {
		c.fail(err, "Can't save backup format!")
		return
	}
	c.display.Print("Default backup format set to %s.", backupFormatNames[f].done)
}
