package backend

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"recoveryctl/internal/config"
	"recoveryctl/internal/errors"
	"recoveryctl/internal/log"
	"recoveryctl/pkg/types"
)

// Templates holds one command line per collaborator. Placeholders in
// braces are replaced per argument; arguments that expand to nothing are
// dropped. No shell is involved.
type Templates struct {
	Install      string
	Sideload     string
	FormatVolume string
	FormatDevice string
	Backup       string
	Restore      string
	DedupeGC     string
	Partition    string
	Mount        string
	Unmount      string
	Share        string
	Unshare      string
}

// TemplatesFromConfig copies the backend section of cfg
func TemplatesFromConfig(cfg *config.Config) Templates {
	b := cfg.Backend
	return Templates{
		Install:      b.Install,
		Sideload:     b.Sideload,
		FormatVolume: b.FormatVolume,
		FormatDevice: b.FormatDevice,
		Backup:       b.Backup,
		Restore:      b.Restore,
		DedupeGC:     b.DedupeGC,
		Partition:    b.Partition,
		Mount:        b.Mount,
		Unmount:      b.Unmount,
		Share:        b.Share,
		Unshare:      b.Unshare,
	}
}

// Vars are placeholder values for a template
type Vars map[string]string

// RunFunc starts name with args and extra environment and returns its exit
// status. err is only set when the process could not be run at all.
type RunFunc func(ctx context.Context, name string, args, env []string, out io.Writer) (int, error)

// Exec runs collaborators as child processes
type Exec struct {
	Templates Templates
	// Output receives the collaborators' stdout and stderr
	Output io.Writer
	run    RunFunc
}

// NewExec creates an Exec that runs real processes
func NewExec(t Templates) *Exec {
	return &Exec{Templates: t, Output: io.Discard, run: runProcess}
}

// WithRunner replaces the process runner
func (e *Exec) WithRunner(run RunFunc) *Exec {
	e.run = run
	return e
}

func runProcess(ctx context.Context, name string, args, env []string, out io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = out
	cmd.Stderr = out
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// Expand splits template into arguments and substitutes vars
func Expand(template string, vars Vars) []string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)

	fields := strings.Fields(template)
	args := make([]string, 0, len(fields))
	for _, f := range fields {
		if a := r.Replace(f); a != "" {
			args = append(args, a)
		}
	}
	return args
}

// Run expands template and runs it. A non-zero status is returned as an
// *errors.CommandError.
func (e *Exec) Run(ctx context.Context, operation, template string, vars Vars, env ...string) error {
	args := Expand(template, vars)
	if len(args) == 0 {
		return errors.NewKind(errors.NotSupported, operation+": no command configured")
	}

	logger := log.LogWithFields(log.F("operation", operation), log.F("command", strings.Join(args, " ")))
	logger.Debug("running collaborator")

	status, err := e.run(ctx, args[0], args[1:], env, e.Output)
	if err != nil || status != 0 {
		cmdErr := errors.NewCommandError(operation, status, err)
		log.LogWithError(cmdErr).Error("collaborator failed")
		return cmdErr
	}
	logger.Debug("collaborator finished")
	return nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (o InstallOptions) vars() Vars {
	return Vars{"signature_check": flag(o.SignatureCheck), "verify_md5": flag(o.VerifyMD5)}
}

func (e *Exec) Install(ctx context.Context, path string, opts InstallOptions) error {
	v := opts.vars()
	v["path"] = path
	return e.Run(ctx, "install", e.Templates.Install, v)
}

func (e *Exec) Sideload(ctx context.Context, opts InstallOptions) error {
	return e.Run(ctx, "sideload", e.Templates.Sideload, opts.vars())
}

func (e *Exec) FormatVolume(ctx context.Context, mountPoint string, opts FormatOptions) error {
	return e.Run(ctx, "format", e.Templates.FormatVolume, Vars{
		"mount_point": mountPoint,
		"wipe_media":  flag(opts.WipeMedia),
	})
}

func (e *Exec) FormatDevice(ctx context.Context, device, mountPoint, fstype string) error {
	return e.Run(ctx, "format device", e.Templates.FormatDevice, Vars{
		"device":      device,
		"mount_point": mountPoint,
		"fstype":      fstype,
	})
}

func (e *Exec) Backup(ctx context.Context, dir string, format types.BackupFormat, parts []string) error {
	return e.Run(ctx, "backup", e.Templates.Backup, Vars{
		"path":   dir,
		"format": format.String(),
		"parts":  strings.Join(parts, ","),
	})
}

func (e *Exec) Restore(ctx context.Context, dir string, parts []string) error {
	return e.Run(ctx, "restore", e.Templates.Restore, Vars{
		"path":  dir,
		"parts": strings.Join(parts, ","),
	})
}

func (e *Exec) DedupeGC(ctx context.Context, blobs string) error {
	return e.Run(ctx, "dedupe gc", e.Templates.DedupeGC, Vars{"path": blobs})
}

// Partition runs the partition tool with the whole-disk device exported as
// SDPATH
func (e *Exec) Partition(ctx context.Context, device, extSize, swapSize, fstype string) error {
	return e.Run(ctx, "partition", e.Templates.Partition, Vars{
		"device":    device,
		"ext_size":  extSize,
		"swap_size": swapSize,
		"fstype":    fstype,
	}, "SDPATH="+device)
}

func (e *Exec) Mount(ctx context.Context, mountPoint string) error {
	return e.Run(ctx, "mount", e.Templates.Mount, Vars{"mount_point": mountPoint})
}

func (e *Exec) Unmount(ctx context.Context, mountPoint string) error {
	return e.Run(ctx, "unmount", e.Templates.Unmount, Vars{"mount_point": mountPoint})
}

func (e *Exec) Share(ctx context.Context, mountPoint string) error {
	return e.Run(ctx, "share", e.Templates.Share, Vars{"mount_point": mountPoint})
}

func (e *Exec) Unshare(ctx context.Context, mountPoint string) error {
	return e.Run(ctx, "unshare", e.Templates.Unshare, Vars{"mount_point": mountPoint})
}

var (
	_ Installer   = (*Exec)(nil)
	_ Formatter   = (*Exec)(nil)
	_ Nandroid    = (*Exec)(nil)
	_ Partitioner = (*Exec)(nil)
	_ Volumes     = (*Exec)(nil)
)
