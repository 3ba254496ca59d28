package console

import (
	"context"
	"testing"

	"recoveryctl/internal/config"
	"recoveryctl/internal/errors"
	"recoveryctl/internal/menu"
	"recoveryctl/internal/menu/menutest"
	"recoveryctl/internal/volume"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadOverrides(t *testing.T) {
	cfg := config.New()
	cfg.Capabilities.ForbidFormat = "/data/[a"

	_, err := New(cfg, menutest.New(), volume.NewTable(cfg.Volumes), newFakeVolumes(), &fakeBackend{})

	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfig(err))
}

func TestStorageVolumes(t *testing.T) {
	e := newEnv(t, menutest.New())
	assert.Equal(t, []string{e.primary, e.extra}, e.con.StorageVolumes())

	e.vols.unavailable[e.extra] = true
	assert.Equal(t, []string{e.primary}, e.con.StorageVolumes())
	assert.Empty(t, e.con.ExtraVolumes())
}

func TestMainMenu(t *testing.T) {
	s := menutest.New()
	e := newEnv(t, s)

	e.con.Run(context.Background())

	require.Len(t, s.Prompts, 1)
	assert.Equal(t, []string{
		"Install zip",
		"Wipe data/factory reset",
		"Wipe cache partition",
		"Backup and Restore",
		"Mounts and Storage",
		"Format Partitions",
		"Advanced",
	}, s.Prompts[0].Items)
}

func TestMainMenuDispatch(t *testing.T) {
	for _, tt := range []struct {
		item   string
		header string
	}{
		{"Install zip", "Install update from zip file"},
		{"Backup and Restore", "Backup and Restore"},
		{"Mounts and Storage", "Mounts and Storage Menu"},
		{"Format Partitions", "Format partitions menu"},
		{"Advanced", "Advanced Menu"},
	} {
		t.Run(tt.item, func(t *testing.T) {
			s := menutest.New().ChooseLabel(tt.item)
			e := newEnv(t, s)

			e.con.Run(context.Background())

			require.Len(t, s.Prompts, 3, "main, submenu, main")
			assert.Equal(t, tt.header, s.Prompts[1].Headers[0])
			assert.Equal(t, s.Prompts[0].Items, s.Prompts[2].Items)
			assert.Equal(t, 0, s.Prompts[0].Initial)
		})
	}
}

func TestMainMenuKeepsCursor(t *testing.T) {
	s := menutest.New().ChooseLabel("Advanced")
	e := newEnv(t, s)

	e.con.Run(context.Background())

	require.Len(t, s.Prompts, 3)
	assert.Equal(t, 6, s.Prompts[2].Initial)
}

func TestWipeData(t *testing.T) {
	s := menutest.New().ChooseLabel("Wipe data/factory reset").ChooseLabel("Yes - Wipe all user data")
	e := newEnv(t, s)

	e.con.Run(context.Background())

	assert.Equal(t, []string{"format-volume /data", "format-volume /cache"}, e.be.calls)
	assert.Equal(t, []string{"-- Wiping data...", "Data wipe complete."}, s.Printed)
}

func TestWipeDataKeepsMedia(t *testing.T) {
	s := menutest.New().ChooseLabel("Wipe data/factory reset").ChooseLabel("Yes - Wipe all user data")
	e := newEnv(t, s, withDataMedia())

	e.con.Run(context.Background())

	assert.Equal(t, []string{"format-volume /data", "format-volume /cache"}, e.be.calls)
}

func TestWipeDataFailure(t *testing.T) {
	s := menutest.New().ChooseLabel("Wipe data/factory reset").ChooseLabel("Yes - Wipe all user data")
	e := newEnv(t, s)
	e.be.failIf = func(call string) bool { return call == "format-volume /data" }

	e.con.Run(context.Background())

	assert.Len(t, e.be.calls, 2, "the cache is still wiped")
	assert.Contains(t, s.Printed, "Error formatting /data!")
	assert.Contains(t, s.Printed, "Data wipe failed.")
}

func TestWipeCache(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		s := menutest.New().ChooseLabel("Wipe cache partition").ChooseLabel("Yes - Wipe Cache")
		e := newEnv(t, s)

		e.con.Run(context.Background())

		assert.Equal(t, []string{"format-volume /cache"}, e.be.calls)
		assert.Contains(t, s.Printed, "Cache wipe complete.")
	})

	t.Run("cancelled", func(t *testing.T) {
		s := menutest.New().ChooseLabel("Wipe cache partition").Choose(menu.GoBack)
		e := newEnv(t, s)

		e.con.Run(context.Background())

		assert.Empty(t, e.be.calls)
	})
}
