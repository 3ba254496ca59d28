package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"recoveryctl/internal/config"
	"recoveryctl/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a temporary YAML config file
func createTestYAML(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	require.NoError(t, err)
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

const (
	validYAML = `
storage:
  primary: /storage/primary
  extra: ["/storage/sdcard1", "/storage/usbdisk"]
  settings_dir: clockworkmod
volumes:
  - mount_point: /system
    fs_type: ext4
    device: /dev/block/mmcblk0p9
  - mount_point: /storage/sdcard1
    fs_type: auto
    device: /dev/block/mmcblk1p1
    device2: /dev/block/mmcblk1
    vold_managed: true
browse:
  show_hidden: true
install:
  verify_md5: true
capabilities:
  forbid_format: "/system,/storage/*"
`
	invalidSyntaxYAML = `
storage:
  primary: "/sdcard
volumes: [
`
	relativePrimaryYAML = `
storage:
  primary: sdcard
`
	duplicateVolumeYAML = `
volumes:
  - mount_point: /cache
    fs_type: ext4
  - mount_point: /cache
    fs_type: ext4
`
	badMarkerYAML = `
markers:
  no_confirm: "../escape"
`
)

func TestLoadConfigFile(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		cfg, err := config.LoadConfigFile(createTestYAML(t, validYAML))
		require.NoError(t, err)

		assert.Equal(t, "/storage/primary", cfg.Storage.Primary)
		assert.Equal(t, []string{"/storage/sdcard1", "/storage/usbdisk"}, cfg.Storage.Extra)
		require.Len(t, cfg.Volumes, 2)
		assert.Equal(t, "auto", cfg.Volumes[1].FSType)
		assert.True(t, cfg.Volumes[1].VoldManaged)
		assert.Equal(t, "/dev/block/mmcblk1", cfg.Volumes[1].Device2)
		assert.True(t, cfg.Browse.ShowHidden)
		assert.True(t, cfg.Install.VerifyMD5)
		assert.False(t, cfg.Install.SignatureCheck)
		assert.Equal(t, "/system,/storage/*", cfg.Capabilities.ForbidFormat)

		// Unset sections keep their defaults
		assert.Equal(t, ".", cfg.Browse.HiddenPrefix)
		assert.Equal(t, ".no_confirm", cfg.Markers.NoConfirm)
		assert.Equal(t, "default", cfg.Theme.Name)
	})

	t.Run("missing file uses defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "absent.yaml")
		cfg, err := config.LoadConfigFile(path)
		require.NoError(t, err)
		assert.Equal(t, "/sdcard", cfg.Storage.Primary)
		assert.Equal(t, path, cfg.Path())
		assert.NotEmpty(t, cfg.Volumes)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := config.LoadConfigFile(createTestYAML(t, invalidSyntaxYAML))
		require.Error(t, err)
		assert.True(t, errors.IsInvalidConfig(err))
	})

	t.Run("relative primary rejected", func(t *testing.T) {
		_, err := config.LoadConfigFile(createTestYAML(t, relativePrimaryYAML))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.primary")
	})

	t.Run("duplicate volume rejected", func(t *testing.T) {
		_, err := config.LoadConfigFile(createTestYAML(t, duplicateVolumeYAML))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate volume /cache")
	})

	t.Run("marker with separator rejected", func(t *testing.T) {
		_, err := config.LoadConfigFile(createTestYAML(t, badMarkerYAML))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "markers.no_confirm")
	})
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("RECOVERYCTL_PRIMARY_STORAGE", "/storage/emulated")
	t.Setenv("RECOVERYCTL_SHOW_HIDDEN", "true")
	t.Setenv("RECOVERYCTL_DEBUG", "true")

	cfg, err := config.LoadConfigFile(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/storage/emulated", cfg.Storage.Primary)
	assert.True(t, cfg.Browse.ShowHidden)
	assert.True(t, cfg.Log.Debug)
}

func TestInvalidEnvironmentOverride(t *testing.T) {
	t.Setenv("RECOVERYCTL_SHOW_HIDDEN", "maybe")

	_, err := config.LoadConfigFile(filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfig(err))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "recoveryctl.yaml")

	cfg, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	cfg.Install.SignatureCheck = true
	cfg.Storage.FreeBrowseRoot = "/storage/usbdisk"
	require.NoError(t, cfg.Save())

	reloaded, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.True(t, reloaded.Install.SignatureCheck)
	assert.Equal(t, "/storage/usbdisk", reloaded.Storage.FreeBrowseRoot)
}

func TestSaveKeepsEnvironmentOverridesOut(t *testing.T) {
	path := createTestYAML(t, "storage:\n  primary: /sdcard\n")
	t.Setenv("RECOVERYCTL_PRIMARY_STORAGE", "/mnt/session-only")
	t.Setenv("RECOVERYCTL_DEBUG", "true")

	cfg, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	cfg.Install.VerifyMD5 = true
	require.NoError(t, cfg.Save())

	assert.Equal(t, "/mnt/session-only", cfg.Storage.Primary, "the running session keeps the override")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "/mnt/session-only")

	os.Unsetenv("RECOVERYCTL_PRIMARY_STORAGE")
	os.Unsetenv("RECOVERYCTL_DEBUG")
	reloaded, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/sdcard", reloaded.Storage.Primary)
	assert.False(t, reloaded.Log.Debug)
	assert.True(t, reloaded.Install.VerifyMD5)
}

func TestSaveWithoutPath(t *testing.T) {
	err := config.New().Save()
	require.Error(t, err)
}

func TestSettingsPath(t *testing.T) {
	cfg := config.New()
	cfg.Storage.Primary = "/storage/primary"
	assert.Equal(t, "/storage/primary/clockworkmod/.no_confirm", cfg.SettingsPath(cfg.Markers.NoConfirm))
}

func TestValidate(t *testing.T) {
	cfg := config.New()
	require.NoError(t, cfg.Validate())

	cfg.Theme.Name = "neon"
	assert.Error(t, cfg.Validate())

	cfg = config.New()
	cfg.Browse.HiddenPrefix = ""
	assert.Error(t, cfg.Validate())

	cfg = config.New()
	cfg.Storage.SettingsDir = "../etc"
	assert.Error(t, cfg.Validate())
}

func TestThemes(t *testing.T) {
	for _, name := range config.ListThemes() {
		theme := config.GetTheme(name)
		assert.Contains(t, theme, "primary", name)
		assert.Contains(t, theme, "error", name)
	}
	assert.Equal(t, config.GetTheme("default"), config.GetTheme("missing"))
}
