package console

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"recoveryctl/internal/backend"
	"recoveryctl/internal/confirm"
	"recoveryctl/internal/errors"
	"recoveryctl/internal/log"
	"recoveryctl/internal/menu"
	"recoveryctl/internal/scan"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

const zipMIME = "application/zip"

type installAction int

const (
	installFromVolume installAction = iota
	installFreeBrowse
	installLastFolder
	installSideload
	installMultiple
	installToggleSignature
	installToggleMD5
	installSetupFreeBrowse
)

type installEntry struct {
	action installAction
	path   string
}

func toggleLabel(on bool, label string) string {
	if on {
		return "(x) " + label
	}
	return "( ) " + label
}

func (c *Console) installOptions() backend.InstallOptions {
	return backend.InstallOptions{
		SignatureCheck: c.cfg.Install.SignatureCheck,
		VerifyMD5:      c.cfg.Install.VerifyMD5,
	}
}

func (c *Console) buildInstallMenu() *menu.Builder[installEntry] {
	b := menu.NewBuilder[installEntry]()
	for _, vol := range c.StorageVolumes() {
		b.Addf(installEntry{action: installFromVolume, path: vol}, "Choose zip from %s", vol)
	}
	return b.
		Add("Choose zip Using Free Browse Mode", installEntry{action: installFreeBrowse}).
		Add("Choose zip from Last Install Folder", installEntry{action: installLastFolder}).
		Add("Install zip from sideload", installEntry{action: installSideload}).
		Add("Install Multiple zip Files", installEntry{action: installMultiple}).
		Add(toggleLabel(c.cfg.Install.SignatureCheck, "Signature Verification"), installEntry{action: installToggleSignature}).
		Add(toggleLabel(c.cfg.Install.VerifyMD5, "Verify zip md5sum"), installEntry{action: installToggleMD5}).
		Add("Setup Free Browse Mode", installEntry{action: installSetupFreeBrowse})
}

// InstallMenu offers every package source and the install toggles
func (c *Console) InstallMenu(ctx context.Context) {
	headers := []string{"Install update from zip file", ""}
	runMenu(c.display, headers, c.buildInstallMenu, func(e installEntry) bool {
		switch e.action {
		case installFromVolume:
			c.ChooseZip(ctx, e.path)
		case installFreeBrowse:
			c.FreeBrowse(ctx)
		case installLastFolder:
			dir, err := c.store.LastInstallPath()
			if err != nil {
				log.LogWithError(err).Debug("no last install folder, using primary storage")
				dir = c.Primary()
			}
			c.ChooseZip(ctx, dir)
		case installSideload:
			c.Sideload(ctx)
		case installMultiple:
			c.MultiFlash(ctx)
		case installToggleSignature:
			c.cfg.Install.SignatureCheck = !c.cfg.Install.SignatureCheck
			c.display.Print("Signature Check: %s", enabledString(c.cfg.Install.SignatureCheck))
			c.saveConfig()
		case installToggleMD5:
			c.cfg.Install.VerifyMD5 = !c.cfg.Install.VerifyMD5
			c.display.Print("Zip MD5 Verification: %s", enabledString(c.cfg.Install.VerifyMD5))
			c.saveConfig()
		case installSetupFreeBrowse:
			c.SetupFreeBrowse()
		}
		return false
	})
}

func enabledString(on bool) string {
	if on {
		return "Enabled"
	}
	return "Disabled"
}

// saveConfig persists toggles. Without a config file they only last for the
// session.
func (c *Console) saveConfig() {
	if err := c.cfg.Save(); err != nil {
		if errors.KindOf(err) == errors.ConfigNotFound {
			log.Debug("no config file, setting kept for this session")
			return
		}
		c.fail(err, "Can't save settings: %v", err)
	}
}

// ChooseZip browses dir for a package and installs it after confirmation.
// The package's folder is recorded as the last install folder once the
// install is confirmed.
func (c *Console) ChooseZip(ctx context.Context, dir string) {
	if !c.ensureMounted(ctx, dir) {
		return
	}
	res := c.selector.SelectExt(dir, ".zip", []string{"Choose a zip to apply"})
	if !res.OK() {
		return
	}
	if !c.confirmInstall(res.Path) {
		return
	}
	c.install(ctx, res.Path)
	if err := c.store.WriteLastInstallPath(filepath.Dir(res.Path)); err != nil {
		log.LogWithError(err).Warn("can't record last install folder")
	}
}

// FreeBrowse browses for a package from the configured start folder. Without
// a usable start folder the operator is sent to SetupFreeBrowse instead.
func (c *Console) FreeBrowse(ctx context.Context) {
	root := c.cfg.Storage.FreeBrowseRoot
	if root == "" {
		c.display.Print("Free browse start folder not set.")
		c.SetupFreeBrowse()
		return
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		c.display.Print("Can't open free browse folder %s", root)
		c.SetupFreeBrowse()
		return
	}
	res := c.selector.SelectExt(root, ".zip", []string{"Choose a zip to apply", "Free browse mode"})
	if !res.OK() {
		return
	}
	if !c.confirmInstall(res.Path) {
		return
	}
	c.install(ctx, res.Path)
	if err := c.store.WriteLastInstallPath(filepath.Dir(res.Path)); err != nil {
		log.LogWithError(err).Warn("can't record last install folder")
	}
}

// SetupFreeBrowse lets the operator pick the free browse start folder
func (c *Console) SetupFreeBrowse() {
	res := c.selector.Select("/", scan.DirsOnly(), []string{"Setup Free Browse Mode", "Choose the start folder"})
	if !res.OK() {
		return
	}
	c.cfg.Storage.FreeBrowseRoot = filepath.Clean(res.Path)
	c.display.Print("Free browse start folder set to %s", c.cfg.Storage.FreeBrowseRoot)
	c.saveConfig()
}

// sniffZip refuses payloads that aren't zip archives. Formats built on zip
// such as jar and apk are accepted.
func sniffZip(path string) error {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return errors.NewFileError("can't read package", path, errors.FileAccessDenied, err)
	}
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is(zipMIME) {
			return nil
		}
	}
	return errors.NewFileError("not a zip package ("+mtype.String()+")", path, errors.InvalidPath, nil)
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "unknown size"
	}
	return humanize.Bytes(uint64(info.Size()))
}

func (c *Console) confirmInstall(path string) bool {
	base := filepath.Base(path)
	if err := sniffZip(path); err != nil {
		c.fail(err, "%s is not a zip file", base)
		return false
	}
	headers := []string{
		"Confirm install?",
		fmt.Sprintf("  %s (%s)", base, fileSize(path)),
		confirm.Warning,
		"",
	}
	return c.gate.ConfirmWithHeaders(headers, "Yes - Install "+base)
}

func (c *Console) install(ctx context.Context, path string) bool {
	c.display.Print("-- Installing: %s", path)
	if err := c.backend.Install(ctx, path, c.installOptions()); err != nil {
		c.fail(err, "Installation aborted.")
		return false
	}
	c.display.Print("Install from %s complete.", filepath.Dir(path))
	return true
}

// Sideload waits for a package pushed over USB and installs it
func (c *Console) Sideload(ctx context.Context) {
	c.display.Print("-- Starting sideload...")
	if err := c.backend.Sideload(ctx, c.installOptions()); err != nil {
		c.fail(err, "Sideload failed.")
		return
	}
	c.display.Print("Sideload complete.")
}

// MultiFlash installs several packages from one folder of primary storage
// in name order, stopping at the first failure
func (c *Console) MultiFlash(ctx context.Context) {
	if !c.ensureMounted(ctx, c.Primary()) {
		return
	}
	res := c.selector.Select(c.Primary(), scan.DirsOnly(), []string{"Choose a folder with zip files"})
	if !res.OK() {
		return
	}
	zips, _ := c.scanner.Scan(res.Path, scan.Suffix(".zip"))
	if zips.Empty() {
		c.display.Print("No zip files found in %s", res.Path)
		return
	}

	const installSelected = -1
	selected := make([]bool, zips.Len())
	labels := zips.Labels(res.Path)
	count := func() int {
		n := 0
		for _, s := range selected {
			if s {
				n++
			}
		}
		return n
	}

	build := func() *menu.Builder[int] {
		b := menu.NewBuilder[int]()
		for i, label := range labels {
			b.Add(toggleLabel(selected[i], label), i)
		}
		return b.Addf(installSelected, "Install %d selected files", count())
	}
	headers := []string{"Select files to install", res.Path, ""}
	runMenu(c.display, headers, build, func(i int) bool {
		if i != installSelected {
			selected[i] = !selected[i]
			return false
		}
		n := count()
		if n == 0 {
			c.display.Print("No files selected.")
			return false
		}
		if !c.gate.Confirm(fmt.Sprintf("Install %d files?", n), "Yes - Install") {
			return true
		}
		for j, ok := range selected {
			if !ok {
				continue
			}
			path := zips.At(j)
			if err := sniffZip(path); err != nil {
				c.fail(err, "%s is not a zip file", filepath.Base(path))
				return true
			}
			if !c.install(ctx, path) {
				c.display.Print("Stopped at %s", filepath.Base(path))
				return true
			}
		}
		c.display.Print("Installed %d files.", n)
		return true
	})
}
