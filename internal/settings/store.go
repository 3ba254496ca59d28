// Package settings persists the small records the console keeps on primary
// storage between sessions.
package settings

import (
	"os"
	"path/filepath"
	"strings"

	"recoveryctl/internal/config"
	"recoveryctl/internal/errors"
	"recoveryctl/pkg/types"
)

// Store reads and writes records under <primary>/<dir>
type Store struct {
	Primary string
	Dir     string

	lastInstall  string
	backupFormat string
}

// New creates a store from the configuration
func New(cfg *config.Config) *Store {
	return &Store{
		Primary:      cfg.Storage.Primary,
		Dir:          cfg.Storage.SettingsDir,
		lastInstall:  cfg.Markers.LastInstall,
		backupFormat: cfg.Markers.BackupFormat,
	}
}

// MarkerPath returns the absolute path of the record named name
func (s *Store) MarkerPath(name string) string {
	return filepath.Join(s.Primary, s.Dir, name)
}

func (s *Store) read(name string) (string, error) {
	path := s.MarkerPath(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewFileError("record not found", path, errors.FileNotFound, err)
		}
		return "", errors.NewFileError("can't read record", path, errors.FileAccessDenied, err)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return strings.TrimSpace(line), nil
}

func (s *Store) write(name, value string) error {
	path := s.MarkerPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewFileError("can't create settings directory", filepath.Dir(path), errors.FileCreateFailed, err)
	}
	if err := os.WriteFile(path, []byte(value), 0644); err != nil {
		return errors.NewFileError("can't write record", path, errors.FileOperationFailed, err)
	}
	return nil
}

// LastInstallPath returns the folder of the last installed package
func (s *Store) LastInstallPath() (string, error) {
	p, err := s.read(s.lastInstall)
	if err != nil {
		return "", err
	}
	if p == "" {
		return "", errors.NewFileError("record is empty", s.MarkerPath(s.lastInstall), errors.FileNotFound, nil)
	}
	return p, nil
}

// WriteLastInstallPath overwrites the last install folder
func (s *Store) WriteLastInstallPath(dir string) error {
	return s.write(s.lastInstall, dir)
}

// BackupFormat returns the default nandroid format, tar when unset
func (s *Store) BackupFormat() types.BackupFormat {
	token, err := s.read(s.backupFormat)
	if err != nil {
		return types.FormatTar
	}
	f, err := types.ParseBackupFormat(token)
	if err != nil {
		return types.FormatTar
	}
	return f
}

// WriteBackupFormat records the default nandroid format
func (s *Store) WriteBackupFormat(f types.BackupFormat) error {
	return s.write(s.backupFormat, f.String())
}
