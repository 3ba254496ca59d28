package volume

import (
	"strings"

	"recoveryctl/internal/errors"

	"github.com/gobwas/glob"
)

// Matrix says what the console may do with a volume
type Matrix struct {
	CanMount  bool
	CanFormat bool
}

var fsMatrix = map[string]Matrix{
	"bml":       {CanMount: false, CanFormat: true},
	"datamedia": {CanMount: false, CanFormat: true},
	"emmc":      {CanMount: false, CanFormat: true},
	"mtd":       {CanMount: false, CanFormat: false},
	"ramdisk":   {CanMount: false, CanFormat: false},
	"swap":      {CanMount: false, CanFormat: false},
}

var mountPointMatrix = map[string]Matrix{
	"/misc":       {},
	"/radio":      {},
	"/bootloader": {},
	"/recovery":   {},
	"/efs":        {},
	"/wimax":      {},
}

// Overrides are operator-supplied mount points that must never be mounted
// or formatted. Each element may be a glob.
type Overrides struct {
	forbidMount  []glob.Glob
	forbidFormat []glob.Glob
}

// ParseOverrides compiles two comma separated lists
func ParseOverrides(forbidMount, forbidFormat string) (Overrides, error) {
	var o Overrides
	var err error
	if o.forbidMount, err = compileList(forbidMount); err != nil {
		return Overrides{}, errors.NewConfigError("bad forbid_mount pattern", "capabilities.forbid_mount", errors.InvalidConfig, err)
	}
	if o.forbidFormat, err = compileList(forbidFormat); err != nil {
		return Overrides{}, errors.NewConfigError("bad forbid_format pattern", "capabilities.forbid_format", errors.InvalidConfig, err)
	}
	return o, nil
}

func compileList(list string) ([]glob.Glob, error) {
	var out []glob.Glob
	for _, p := range strings.Split(list, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func matchAny(globs []glob.Glob, s string) bool {
	for _, g := range globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}

// Capabilities resolves the matrix for v: filesystem type first, then mount
// point, then the overrides
func (o Overrides) Capabilities(v Volume) Matrix {
	m := Matrix{CanMount: true, CanFormat: true}
	if fm, ok := fsMatrix[v.FSType]; ok {
		m = fm
	}
	if mm, ok := mountPointMatrix[v.MountPoint]; ok {
		m = mm
	}
	if matchAny(o.forbidMount, v.MountPoint) {
		m.CanMount = false
	}
	if matchAny(o.forbidFormat, v.MountPoint) {
		m.CanFormat = false
	}
	return m
}
