package console

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"recoveryctl/internal/menu/menutest"
	"recoveryctl/internal/nandroid"
	"recoveryctl/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNandroidMenuLayout(t *testing.T) {
	e := newEnv(t, menutest.New())

	e.con.NandroidMenu(context.Background())

	want := []string{}
	for _, vol := range []string{e.primary, e.extra} {
		want = append(want,
			"Backup to "+vol,
			"Restore from "+vol,
			"Delete from "+vol,
			"Custom Backup to "+vol,
			"Custom Restore from "+vol,
		)
	}
	want = append(want, "Clone ROM to update.zip", "Free Unused Backup Data", "Misc Nandroid Settings")
	assert.Equal(t, want, itemsOf(e.script, 0))
	assert.Equal(t, []string{"Backup and Restore"}, e.script.Prompts[0].Headers)
}

func TestNandroidMenuWithoutExtraMedia(t *testing.T) {
	e := newEnv(t, menutest.New(5))
	e.vols.unavailable[e.extra] = true

	e.con.NandroidMenu(context.Background())

	assert.Len(t, itemsOf(e.script, 0), 8)
	assert.Contains(t, e.script.Printed, "Clone ROM to update.zip is not supported.", "index 5 is the first fixed entry")
}

func TestBackup(t *testing.T) {
	s := menutest.New()
	e := newEnv(t, s)
	require.NoError(t, e.con.store.WriteBackupFormat(types.FormatDup))
	s.ChooseLabel("Backup to " + e.extra)

	e.con.NandroidMenu(context.Background())

	dir := filepath.Join(e.extra, "clockworkmod", "backup", "2024-03-09.14.05.30")
	assert.Equal(t, []string{"backup " + dir + " dup /boot,/system,/data,/cache"}, e.be.calls)
	assert.Contains(t, s.Printed, "Backup complete!")
}

func TestBackupFailure(t *testing.T) {
	s := menutest.New(0)
	e := newEnv(t, s)
	e.be.failIf = func(string) bool { return true }

	e.con.NandroidMenu(context.Background())

	assert.Contains(t, s.Printed, "Error while making a backup image!")
	assert.NotContains(t, s.Printed, "Backup complete!")
}

func TestRestore(t *testing.T) {
	s := menutest.New()
	e := newEnv(t, s)
	root := nandroid.BackupRoot(e.primary)
	mkdirs(t, filepath.Join(root, "2024-01-01.00.00.00"), filepath.Join(root, "2024-02-01.00.00.00"))
	s.ChooseLabel("Restore from " + e.primary).
		ChooseLabel("2024-02-01.00.00.00/").
		ChooseLabel("Yes - Restore")

	e.con.NandroidMenu(context.Background())

	assert.Equal(t, []string{"2024-01-01.00.00.00/", "2024-02-01.00.00.00/"}, itemsOf(s, 1))
	assert.Equal(t, []string{"restore " + root + "/2024-02-01.00.00.00/ /boot,/system,/data,/cache"}, e.be.calls)
	assert.Equal(t, []string{"Confirm restore?", "  THIS CAN NOT BE UNDONE.", ""}, s.Prompts[2].Headers)
}

func TestRestoreWithoutBackups(t *testing.T) {
	s := menutest.New()
	e := newEnv(t, s)
	s.ChooseLabel("Restore from " + e.primary)

	e.con.NandroidMenu(context.Background())

	assert.Empty(t, e.be.calls)
	assert.Contains(t, s.Printed, "No files found.")
}

func TestDeleteBackups(t *testing.T) {
	s := menutest.New()
	e := newEnv(t, s)
	root := nandroid.BackupRoot(e.primary)
	old := filepath.Join(root, "2023-12-31.23.59.59")
	keep := filepath.Join(root, "2024-01-01.00.00.00")
	mkdirs(t, old, keep)
	require.NoError(t, os.WriteFile(filepath.Join(old, "system.ext4.tar"), make([]byte, 2048), 0644))
	s.ChooseLabel("Delete from " + e.primary).
		ChooseLabel("2023-12-31.23.59.59/").
		ChooseLabel("Yes - Delete 2023-12-31.23.59.59").
		Back()

	e.con.NandroidMenu(context.Background())

	assert.NoDirExists(t, old)
	assert.DirExists(t, keep)
	assert.Contains(t, s.Printed, "Deleted 2023-12-31.23.59.59")

	confirmPrompt := s.Prompts[2]
	assert.Equal(t, "Confirm delete?", confirmPrompt.Headers[0])
	assert.Equal(t, "  2023-12-31.23.59.59 (2.0 kB)", confirmPrompt.Headers[1])
	assert.Equal(t, []string{"2024-01-01.00.00.00/"}, itemsOf(s, 3), "the delete browse is offered again")
}

func TestDeleteBackupsDeclined(t *testing.T) {
	s := menutest.New()
	e := newEnv(t, s)
	dir := filepath.Join(nandroid.BackupRoot(e.primary), "2024-01-01.00.00.00")
	mkdirs(t, dir)
	s.ChooseLabel("Delete from " + e.primary).
		ChooseLabel("2024-01-01.00.00.00/").
		Choose(0).
		Back()

	e.con.NandroidMenu(context.Background())

	assert.DirExists(t, dir)
}

func TestCustomBackup(t *testing.T) {
	s := menutest.New()
	e := newEnv(t, s)
	s.ChooseLabel("Custom Backup to " + e.primary).
		ChooseLabel("Start Custom Backup").
		ChooseLabel("( ) /boot").
		ChooseLabel("( ) /system").
		ChooseLabel("Start Custom Backup")

	e.con.NandroidMenu(context.Background())

	assert.Equal(t, []string{
		"( ) /boot", "( ) /recovery", "( ) /system", "( ) /data", "( ) /cache", "Start Custom Backup",
	}, itemsOf(s, 1), "partitions missing from the device are not offered")
	assert.Contains(t, s.Printed, "No partitions selected.")
	require.Len(t, e.be.calls, 1)
	assert.True(t, strings.HasSuffix(e.be.calls[0], " tar /boot,/system"), e.be.calls[0])
}

func TestCustomRestore(t *testing.T) {
	s := menutest.New()
	e := newEnv(t, s)
	root := nandroid.BackupRoot(e.extra)
	mkdirs(t, filepath.Join(root, "2024-01-01.00.00.00"))
	s.ChooseLabel("Custom Restore from " + e.extra).
		ChooseLabel("2024-01-01.00.00.00/").
		ChooseLabel("( ) /data").
		ChooseLabel("Start Custom Restore").
		ChooseLabel("Yes - Restore")

	e.con.NandroidMenu(context.Background())

	assert.Equal(t, []string{"restore " + root + "/2024-01-01.00.00.00/ /data"}, e.be.calls)
	assert.Equal(t, "Custom Restore from 2024-01-01.00.00.00", s.Prompts[2].Headers[0])
}

func TestFreeUnusedBackupData(t *testing.T) {
	s := menutest.New()
	e := newEnv(t, s)
	s.ChooseLabel("Free Unused Backup Data")

	e.con.NandroidMenu(context.Background())

	assert.Equal(t, []string{
		"dedupe " + nandroid.BlobsPath(e.primary),
		"dedupe " + nandroid.BlobsPath(e.extra),
	}, e.be.calls)
	assert.Contains(t, s.Printed, "Done.")
}

func TestFreeUnusedBackupDataSkipsUnmountable(t *testing.T) {
	s := menutest.New()
	e := newEnv(t, s)
	e.vols.failMount[e.extra] = true
	s.ChooseLabel("Free Unused Backup Data")

	e.con.NandroidMenu(context.Background())

	assert.Equal(t, []string{"dedupe " + nandroid.BlobsPath(e.primary)}, e.be.calls)
}

func TestChooseDefaultBackupFormat(t *testing.T) {
	s := menutest.New()
	e := newEnv(t, s)
	s.ChooseLabel("Misc Nandroid Settings").ChooseLabel("tar + gzip").ChooseLabel("Misc Nandroid Settings")

	e.con.NandroidMenu(context.Background())

	assert.Equal(t, types.FormatTgz, e.con.store.BackupFormat())
	assert.Equal(t, []string{"tar (default)", "dup", "tar + gzip"}, itemsOf(s, 1))
	assert.Equal(t, []string{"tar", "dup", "tar + gzip (default)"}, itemsOf(s, 3))
	assert.Contains(t, s.Printed, "Default backup format set to tar + gzip.")
}
