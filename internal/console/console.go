// Package console assembles the operator menus of the recovery console and
// dispatches the operator's choices to the volume layer and the backend
// tools.
package console

import (
	"context"
	"fmt"
	"time"

	"recoveryctl/internal/backend"
	"recoveryctl/internal/browse"
	"recoveryctl/internal/config"
	"recoveryctl/internal/confirm"
	"recoveryctl/internal/log"
	"recoveryctl/internal/menu"
	"recoveryctl/internal/scan"
	"recoveryctl/internal/settings"
	"recoveryctl/internal/volume"
)

// Backend is every tool the console drives
type Backend interface {
	backend.Installer
	backend.Formatter
	backend.Nandroid
	backend.Partitioner
}

// Console owns the menus of one operator session
type Console struct {
	cfg       *config.Config
	display   menu.Display
	table     *volume.Table
	volumes   volume.Manager
	overrides volume.Overrides
	backend   Backend

	scanner  *scan.Scanner
	selector *browse.Selector
	gate     *confirm.Gate
	store    *settings.Store

	dataMedia string
	now       func() time.Time
}

// Option configures a Console
type Option func(*Console)

// WithClock sets the clock used to name backups
func WithClock(now func() time.Time) Option {
	return func(c *Console) { c.now = now }
}

// WithDataMediaRoot sets the folder holding internal storage on data media
// devices, /data/media by default
func WithDataMediaRoot(dir string) Option {
	return func(c *Console) { c.dataMedia = dir }
}

// New creates a console. It fails only when the capability overrides in cfg
// don't compile.
func New(cfg *config.Config, display menu.Display, table *volume.Table, volumes volume.Manager, be Backend, opts ...Option) (*Console, error) {
	overrides, err := volume.ParseOverrides(cfg.Capabilities.ForbidMount, cfg.Capabilities.ForbidFormat)
	if err != nil {
		return nil, err
	}

	scanner := &scan.Scanner{ShowHidden: cfg.Browse.ShowHidden, HiddenPrefix: cfg.Browse.HiddenPrefix}
	c := &Console{
		cfg:       cfg,
		display:   display,
		table:     table,
		volumes:   volumes,
		overrides: overrides,
		backend:   be,
		scanner:   scanner,
		selector:  browse.New(scanner, display),
		gate:      confirm.New(display, cfg.SettingsPath(cfg.Markers.NoConfirm), cfg.SettingsPath(cfg.Markers.ManyConfirm)),
		store:     settings.New(cfg),
		dataMedia: "/data/media",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Primary returns the primary storage path
func (c *Console) Primary() string {
	return c.cfg.Storage.Primary
}

// ExtraVolumes returns the configured removable volumes that have media
func (c *Console) ExtraVolumes() []string {
	out := make([]string, 0, len(c.cfg.Storage.Extra))
	for _, p := range c.cfg.Storage.Extra {
		if c.volumes.IsAvailable(p) {
			out = append(out, p)
		}
	}
	return out
}

// StorageVolumes returns primary storage followed by the available extras
func (c *Console) StorageVolumes() []string {
	return append([]string{c.Primary()}, c.ExtraVolumes()...)
}

// presentVolumes lists table entries, skipping vold volumes without media
func (c *Console) presentVolumes() []volume.Volume {
	all := c.table.Volumes()
	out := make([]volume.Volume, 0, len(all))
	for _, v := range all {
		if v.VoldManaged && !c.volumes.IsAvailable(v.MountPoint) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// fail logs err and shows msg to the operator
func (c *Console) fail(err error, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.LogWithError(err).Error(msg)
	c.display.Print(msg)
}

func (c *Console) ensureMounted(ctx context.Context, path string) bool {
	if err := c.volumes.EnsureMounted(ctx, path); err != nil {
		c.fail(err, "Can't mount %s", path)
		return false
	}
	return true
}

// runMenu shows the menu returned by build until the operator backs out or
// handle reports it is done. The menu is rebuilt before every presentation
// and on refresh; the cursor stays on the last chosen slot.
func runMenu[T any](p menu.Presenter, headers []string, build func() *menu.Builder[T], handle func(T) bool) {
	cursor := 0
	for {
		b := build()
		entry, idx, ok := b.Select(p, headers, cursor)
		if !ok {
			if idx == menu.Refresh {
				continue
			}
			return
		}
		cursor = idx
		if handle(entry.Value) {
			return
		}
	}
}

// pick presents a fixed list once and returns the chosen index, or a
// negative sentinel. A refresh shows the list again.
func pick(p menu.Presenter, headers, items []string) int {
	for {
		chosen := p.Present(menu.Prompt{Headers: headers, Items: items})
		if chosen == menu.Refresh {
			continue
		}
		if chosen >= len(items) {
			return menu.GoBack
		}
		return chosen
	}
}

type mainAction int

const (
	mainInstall mainAction = iota
	mainWipeData
	mainWipeCache
	mainNandroid
	mainMounts
	mainFormat
	mainAdvanced
)

// Run shows the main menu until the operator backs out of it
func (c *Console) Run(ctx context.Context) {
	log.LogWithContext(ctx).Info("console started")
	defer log.LogWithContext(ctx).Info("console closed")

	build := func() *menu.Builder[mainAction] {
		return menu.NewBuilder[mainAction]().
			Add("Install zip", mainInstall).
			Add("Wipe data/factory reset", mainWipeData).
			Add("Wipe cache partition", mainWipeCache).
			Add("Backup and Restore", mainNandroid).
			Add("Mounts and Storage", mainMounts).
			Add("Format Partitions", mainFormat).
			Add("Advanced", mainAdvanced)
	}
	runMenu(c.display, []string{"Recovery Console", ""}, build, func(a mainAction) bool {
		switch a {
		case mainInstall:
			c.InstallMenu(ctx)
		case mainWipeData:
			c.WipeData(ctx)
		case mainWipeCache:
			c.WipeCache(ctx)
		case mainNandroid:
			c.NandroidMenu(ctx)
		case mainMounts:
			c.MountsMenu(ctx)
		case mainFormat:
			c.FormatMenu(ctx)
		case mainAdvanced:
			c.AdvancedMenu(ctx)
		}
		return false
	})
}

func (c *Console) hasVolume(mountPoint string) bool {
	v, ok := c.table.ForPath(mountPoint)
	return ok && v.MountPoint == mountPoint
}

// WipeData formats /data and /cache after confirmation
func (c *Console) WipeData(ctx context.Context) {
	if !c.gate.Confirm("Confirm wipe of all user data?", "Yes - Wipe all user data") {
		return
	}
	c.display.Print("-- Wiping data...")
	failed := false
	for _, mp := range []string{"/data", "/cache"} {
		if !c.hasVolume(mp) {
			continue
		}
		if err := c.backend.FormatVolume(ctx, mp, backend.FormatOptions{}); err != nil {
			c.fail(err, "Error formatting %s!", mp)
			failed = true
		}
	}
	if failed {
		c.display.Print("Data wipe failed.")
		return
	}
	c.display.Print("Data wipe complete.")
}

// WipeCache formats /cache after confirmation
func (c *Console) WipeCache(ctx context.Context) {
	if !c.gate.Confirm("Confirm wipe?", "Yes - Wipe Cache") {
		return
	}
	c.display.Print("-- Wiping cache...")
	if err := c.backend.FormatVolume(ctx, "/cache", backend.FormatOptions{}); err != nil {
		c.fail(err, "Cache wipe failed.")
		return
	}
	c.display.Print("Cache wipe complete.")
}
