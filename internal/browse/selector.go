// Package browse implements the recursive file selector used by every
// console action that needs a path from the operator.
package browse

import (
	"recoveryctl/internal/log"
	"recoveryctl/internal/menu"
	"recoveryctl/internal/scan"
	"recoveryctl/pkg/types"
)

// Status is the outcome of a browse
type Status int

const (
	// Selected means Result.Path holds the chosen path
	Selected Status = iota
	// Cancelled means the operator backed out or a refresh was requested
	Cancelled
	// Empty means the directory had nothing to offer
	Empty
)

func (s Status) String() string {
	switch s {
	case Selected:
		return "selected"
	case Cancelled:
		return "cancelled"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// Result is what Select hands back
type Result struct {
	Status Status
	Path   string
}

// OK reports whether a path was selected
func (r Result) OK() bool {
	return r.Status == Selected
}

// Selector walks directories through a menu.Display
type Selector struct {
	Scanner *scan.Scanner
	Display menu.Display
}

// New creates a selector
func New(scanner *scan.Scanner, display menu.Display) *Selector {
	return &Selector{Scanner: scanner, Display: display}
}

// Select browses base and returns the operator's pick.
//
// With a DirsOnly filter the subdirectories of base are the choices and the
// chosen directory is returned with its trailing slash. Otherwise
// subdirectories are listed first and open a nested browse, followed by the
// entries matching f; choosing one of those ends the browse.
//
// A nested browse that comes back empty or cancelled resumes at the current
// level. A nested pick is returned as is.
func (s *Selector) Select(base string, f scan.Filter, headers []string) Result {
	dir := types.WithTrailingSlash(base)

	fixed := make([]string, 0, len(headers)+1)
	fixed = append(fixed, headers...)
	fixed = append(fixed, dir)

	var dirs, files types.NameList
	if f.Mode == scan.ModeDirs {
		files, _ = s.Scanner.Scan(dir, f)
	} else {
		dirs, _ = s.Scanner.Scan(dir, scan.DirsOnly())
		files, _ = s.Scanner.Scan(dir, f)
	}

	numDirs := dirs.Len()
	total := numDirs + files.Len()
	if total == 0 {
		s.Display.Print("No files found.")
		return Result{Status: Empty}
	}

	items := make([]string, 0, total)
	items = append(items, dirs.Labels(dir)...)
	items = append(items, files.Labels(dir)...)

	cursor := 0
	for {
		chosen := s.Display.Present(menu.Prompt{Headers: fixed, Items: items, Initial: cursor})
		if chosen < 0 || chosen >= total {
			return Result{Status: Cancelled}
		}
		cursor = chosen

		if chosen < numDirs {
			sub := s.Select(dirs.At(chosen), f, headers)
			if sub.OK() {
				return sub
			}
			continue
		}

		path := files.At(chosen - numDirs)
		log.LogWithFields(log.F("path", path), log.F("filter", f.String())).Debug("path selected")
		return Result{Status: Selected, Path: path}
	}
}

// SelectExt is Select with the string filter convention used in menus: ""
// for every file, "/" for directories, anything else as a suffix
func (s *Selector) SelectExt(base, ext string, headers []string) Result {
	return s.Select(base, scan.ForExtension(ext), headers)
}

