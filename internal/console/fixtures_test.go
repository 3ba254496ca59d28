package console

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"recoveryctl/internal/backend"
	"recoveryctl/internal/config"
	"recoveryctl/internal/errors"
	"recoveryctl/internal/menu/menutest"
	"recoveryctl/internal/volume"
	"recoveryctl/pkg/types"

	"github.com/stretchr/testify/require"
)

type fakeVolumes struct {
	mounted     map[string]bool
	unavailable map[string]bool
	failMount   map[string]bool
	calls       []string
}

func newFakeVolumes() *fakeVolumes {
	return &fakeVolumes{
		mounted:     map[string]bool{},
		unavailable: map[string]bool{},
		failMount:   map[string]bool{},
	}
}

func (f *fakeVolumes) EnsureMounted(ctx context.Context, path string) error {
	if f.failMount[path] {
		return errors.NewVolumeError("can't mount", path, "mount", errors.MountFailed, nil)
	}
	f.mounted[path] = true
	return nil
}

func (f *fakeVolumes) EnsureUnmounted(ctx context.Context, path string) error {
	f.calls = append(f.calls, "unmount "+path)
	delete(f.mounted, path)
	return nil
}

func (f *fakeVolumes) IsMounted(path string) bool {
	return f.mounted[path]
}

func (f *fakeVolumes) IsAvailable(mountPoint string) bool {
	return !f.unavailable[mountPoint]
}

func (f *fakeVolumes) Share(ctx context.Context, mountPoint string) error {
	f.calls = append(f.calls, "share "+mountPoint)
	return nil
}

func (f *fakeVolumes) Unshare(ctx context.Context, mountPoint string) error {
	f.calls = append(f.calls, "unshare "+mountPoint)
	return nil
}

// fakeBackend records every tool invocation as one line
type fakeBackend struct {
	calls  []string
	failIf func(call string) bool
}

func (f *fakeBackend) record(format string, args ...interface{}) error {
	call := fmt.Sprintf(format, args...)
	f.calls = append(f.calls, call)
	if f.failIf != nil && f.failIf(call) {
		return errors.NewCommandError(strings.Fields(call)[0], 1, nil)
	}
	return nil
}

func (f *fakeBackend) Install(ctx context.Context, path string, opts backend.InstallOptions) error {
	return f.record("install %s sig=%t md5=%t", path, opts.SignatureCheck, opts.VerifyMD5)
}

func (f *fakeBackend) Sideload(ctx context.Context, opts backend.InstallOptions) error {
	return f.record("sideload")
}

func (f *fakeBackend) FormatVolume(ctx context.Context, mountPoint string, opts backend.FormatOptions) error {
	if opts.WipeMedia {
		return f.record("format-volume %s wipe-media", mountPoint)
	}
	return f.record("format-volume %s", mountPoint)
}

func (f *fakeBackend) FormatDevice(ctx context.Context, device, mountPoint, fstype string) error {
	return f.record("format-device %s %s %s", device, mountPoint, fstype)
}

func (f *fakeBackend) Backup(ctx context.Context, dir string, format types.BackupFormat, parts []string) error {
	return f.record("backup %s %s %s", dir, format, strings.Join(parts, ","))
}

func (f *fakeBackend) Restore(ctx context.Context, dir string, parts []string) error {
	return f.record("restore %s %s", dir, strings.Join(parts, ","))
}

func (f *fakeBackend) DedupeGC(ctx context.Context, blobs string) error {
	return f.record("dedupe %s", blobs)
}

func (f *fakeBackend) Partition(ctx context.Context, device, extSize, swapSize, fstype string) error {
	return f.record("partition %s %s %s %s", device, extSize, swapSize, fstype)
}

var fixedNow = time.Date(2024, 3, 9, 14, 5, 30, 0, time.UTC)

type testEnv struct {
	cfg     *config.Config
	script  *menutest.Script
	vols    *fakeVolumes
	be      *fakeBackend
	con     *Console
	primary string
	extra   string
	media   string
}

type envOption func(*testEnv)

// withDataMedia makes primary storage live on data media
func withDataMedia() envOption {
	return func(e *testEnv) {
		e.cfg.Volumes[0].FSType = volume.FSDataMedia
	}
}

func withConfig(fn func(*config.Config)) envOption {
	return func(e *testEnv) { fn(e.cfg) }
}

// newEnv builds a console over a device with internal vfat storage, one
// removable card and the usual system partitions
func newEnv(t *testing.T, script *menutest.Script, opts ...envOption) *testEnv {
	t.Helper()
	root := t.TempDir()
	e := &testEnv{
		cfg:     config.New(),
		script:  script,
		vols:    newFakeVolumes(),
		be:      &fakeBackend{},
		primary: filepath.Join(root, "sdcard"),
		extra:   filepath.Join(root, "external_sd"),
		media:   filepath.Join(root, "data", "media"),
	}
	require.NoError(t, os.MkdirAll(e.primary, 0755))
	require.NoError(t, os.MkdirAll(e.extra, 0755))
	require.NoError(t, os.MkdirAll(e.media, 0755))

	e.cfg.Storage.Primary = e.primary
	e.cfg.Storage.Extra = []string{e.extra}
	e.cfg.Log.File = filepath.Join(root, "recovery.log")
	e.cfg.Volumes = []config.VolumeSpec{
		{MountPoint: e.primary, FSType: "vfat", Device: "/dev/block/platform/msm_sdcc.1/by-name/media"},
		{MountPoint: e.extra, FSType: volume.FSAuto, Device: "/dev/block/mmcblk1p1", Device2: "/dev/block/vold/179:33", VoldManaged: true},
		{MountPoint: "/tmp", FSType: volume.FSRamdisk, Device: "ramdisk"},
		{MountPoint: "/boot", FSType: "emmc", Device: "/dev/block/mmcblk0p8"},
		{MountPoint: "/recovery", FSType: "emmc", Device: "/dev/block/mmcblk0p9"},
		{MountPoint: "/system", FSType: "ext4", Device: "/dev/block/mmcblk0p10"},
		{MountPoint: "/data", FSType: "ext4", Device: "/dev/block/mmcblk0p11"},
		{MountPoint: "/cache", FSType: "ext4", Device: "/dev/block/mmcblk0p12"},
	}
	for _, opt := range opts {
		opt(e)
	}

	con, err := New(e.cfg, script, volume.NewTable(e.cfg.Volumes), e.vols, e.be,
		WithClock(func() time.Time { return fixedNow }),
		WithDataMediaRoot(e.media))
	require.NoError(t, err)
	e.con = con
	return e
}

// writeZip creates a zip archive at path holding one entry
func writeZip(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	entry, err := w.Create("META-INF/com/google/android/update-binary")
	require.NoError(t, err)
	_, err = entry.Write([]byte("#!/sbin/sh\nexit 0\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(p, 0755))
	}
}

func itemsOf(s *menutest.Script, i int) []string {
	if i >= len(s.Prompts) {
		return nil
	}
	return s.Prompts[i].Items
}
