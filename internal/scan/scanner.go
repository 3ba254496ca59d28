// Package scan lists the immediate children of a directory that match a
// filter. Results are absolute paths, directories carry a trailing slash
// and the list is sorted case-insensitively.
package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"recoveryctl/internal/errors"
	"recoveryctl/internal/log"
	"recoveryctl/pkg/types"
)

// Mode selects which entries a Filter keeps
type Mode int

const (
	// ModeDirs keeps subdirectories only
	ModeDirs Mode = iota
	// ModeAll keeps every entry that is not a directory
	ModeAll
	// ModeSuffix keeps non-directory entries whose name ends in a suffix
	ModeSuffix
)

// Filter decides which directory entries are gathered
type Filter struct {
	Mode   Mode
	Suffix string
}

// DirsOnly gathers subdirectories
func DirsOnly() Filter { return Filter{Mode: ModeDirs} }

// AllFiles gathers every non-directory entry
func AllFiles() Filter { return Filter{Mode: ModeAll} }

// Suffix gathers entries whose name ends with ext. The match is on the name
// alone and is case-sensitive.
func Suffix(ext string) Filter { return Filter{Mode: ModeSuffix, Suffix: ext} }

// ForExtension maps a selector filter string to a Filter: "" means all
// entries, "/" means directories and anything else is a suffix.
func ForExtension(ext string) Filter {
	switch ext {
	case "":
		return AllFiles()
	case "/":
		return DirsOnly()
	default:
		return Suffix(ext)
	}
}

func (f Filter) String() string {
	switch f.Mode {
	case ModeDirs:
		return "dirs"
	case ModeAll:
		return "all"
	default:
		return "suffix:" + f.Suffix
	}
}

// Scanner gathers directory entries
type Scanner struct {
	ShowHidden   bool
	HiddenPrefix string
}

// New returns a scanner that hides dot entries
func New() *Scanner {
	return &Scanner{HiddenPrefix: "."}
}

func (s *Scanner) hidden(name string) bool {
	if s.ShowHidden {
		return false
	}
	prefix := s.HiddenPrefix
	if prefix == "" {
		prefix = "."
	}
	return strings.HasPrefix(name, prefix)
}

// Scan lists base and returns the matching children of base as absolute
// paths. An unreadable directory yields an empty list and a *errors.FileError;
// an empty or fully-filtered directory yields an empty list and no error.
func (s *Scanner) Scan(base string, f Filter) (types.NameList, error) {
	base = types.WithTrailingSlash(base)

	dir, err := os.Open(base)
	if err != nil {
		kind := errors.FileAccessDenied
		if os.IsNotExist(err) {
			kind = errors.FileNotFound
		}
		scanErr := errors.NewFileError("couldn't open directory", base, kind, err)
		log.LogWithError(scanErr).Warn("directory scan failed")
		return types.NewNameList(nil), scanErr
	}
	defer dir.Close()

	names, err := dir.Readdirnames(-1)
	if err != nil {
		scanErr := errors.NewFileError("couldn't read directory", base, errors.FileOperationFailed, err)
		log.LogWithError(scanErr).Warn("directory scan failed")
		return types.NewNameList(nil), scanErr
	}

	paths := make([]string, 0, len(names))
	for _, name := range names {
		if s.hidden(name) {
			continue
		}
		full := base + name

		if f.Mode == ModeSuffix && !strings.HasSuffix(name, f.Suffix) {
			continue
		}
		fi, err := os.Lstat(full)
		if err != nil {
			log.LogWithFields(log.F("path", full), log.F("error", err.Error())).Debug("skipping entry")
			continue
		}
		// Directories are only ever gathered in directory mode
		switch {
		case f.Mode == ModeDirs && fi.IsDir():
			paths = append(paths, full+"/")
		case f.Mode != ModeDirs && !fi.IsDir():
			paths = append(paths, full)
		}
	}

	sort.SliceStable(paths, func(i, j int) bool {
		return strings.ToLower(paths[i]) < strings.ToLower(paths[j])
	})

	log.LogWithFields(
		log.F("path", base),
		log.F("filter", f.String()),
		log.F("count", len(paths)),
	).Debug("directory scanned")

	return types.NewNameList(paths), nil
}

// Base returns the name of path without any trailing slash
func Base(path string) string {
	return filepath.Base(strings.TrimSuffix(path, "/"))
}
