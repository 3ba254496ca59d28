package settings

import (
	"os"
	"path/filepath"
	"testing"

	"recoveryctl/internal/config"
	"recoveryctl/internal/errors"
	"recoveryctl/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	cfg := config.New()
	cfg.Storage.Primary = t.TempDir()
	return New(cfg)
}

func TestLastInstallPath(t *testing.T) {
	s := newStore(t)

	_, err := s.LastInstallPath()
	require.Error(t, err)
	assert.True(t, errors.IsFileNotFound(err))

	require.NoError(t, s.WriteLastInstallPath("/sdcard/firmware"))
	got, err := s.LastInstallPath()
	require.NoError(t, err)
	assert.Equal(t, "/sdcard/firmware", got)

	require.NoError(t, s.WriteLastInstallPath("/storage/sdcard1/roms"))
	got, err = s.LastInstallPath()
	require.NoError(t, err)
	assert.Equal(t, "/storage/sdcard1/roms", got, "record is overwritten")

	data, err := os.ReadFile(s.MarkerPath(".last_install_path"))
	require.NoError(t, err)
	assert.Equal(t, "/storage/sdcard1/roms", string(data))
}

func TestLastInstallPathFirstLineOnly(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.write(".last_install_path", "/sdcard/a\n/sdcard/b\n"))
	got, err := s.LastInstallPath()
	require.NoError(t, err)
	assert.Equal(t, "/sdcard/a", got)

	require.NoError(t, s.write(".last_install_path", "\n"))
	_, err = s.LastInstallPath()
	assert.Error(t, err)
}

func TestBackupFormat(t *testing.T) {
	s := newStore(t)
	assert.Equal(t, types.FormatTar, s.BackupFormat(), "default when unset")

	for _, f := range types.BackupFormats {
		require.NoError(t, s.WriteBackupFormat(f))
		assert.Equal(t, f, s.BackupFormat())
	}

	require.NoError(t, s.write(".default_backup_format", "zip"))
	assert.Equal(t, types.FormatTar, s.BackupFormat(), "unknown token falls back")
}

func TestMarkerPath(t *testing.T) {
	s := &Store{Primary: "/storage/primary", Dir: "clockworkmod"}
	assert.Equal(t, filepath.Join("/storage/primary", "clockworkmod", ".no_confirm"), s.MarkerPath(".no_confirm"))
}
