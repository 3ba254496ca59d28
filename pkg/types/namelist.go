package types

import "strings"

// NameList is an ordered list of absolute paths gathered from one directory.
// The list owns its backing slice; accessors hand out copies.
type NameList struct {
	paths []string
}

// NewNameList takes ownership of paths
func NewNameList(paths []string) NameList {
	return NameList{paths: paths}
}

// Len returns the number of entries
func (n NameList) Len() int {
	return len(n.paths)
}

// Empty reports whether the list has no entries
func (n NameList) Empty() bool {
	return len(n.paths) == 0
}

// At returns the i-th path
func (n NameList) At(i int) string {
	return n.paths[i]
}

// Paths returns a copy of the entries
func (n NameList) Paths() []string {
	out := make([]string, len(n.paths))
	copy(out, n.paths)
	return out
}

// Labels returns each entry relative to base (prefix stripped)
func (n NameList) Labels(base string) []string {
	out := make([]string, len(n.paths))
	for i, p := range n.paths {
		out[i] = strings.TrimPrefix(p, base)
	}
	return out
}

// WithTrailingSlash normalizes a directory path to end with a separator
func WithTrailingSlash(dir string) string {
	if !strings.HasSuffix(dir, "/") {
		return dir + "/"
	}
	return dir
}
