package treepath

import "strings"

// Separator joins node ids into a materialized path.
const Separator = "."

// Join appends a node id to its parent's path. A root node has an empty
// parent path and its path is just its own id.
func Join(parentPath, id string) string {
	if parentPath == "" {
		return id
	}
	return parentPath + Separator + id
}

// Segments splits a path into its node ids, root first.
func Segments(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Separator)
}

// Level returns the depth encoded by a path: root = 1, child = 2, etc.
func Level(path string) int {
	if path == "" {
		return 0
	}
	return strings.Count(path, Separator) + 1
}

// ContainsSegment reports whether id appears as a full dot-delimited
// segment of path. A plain substring check is not enough: one id may be
// a prefix of another.
func ContainsSegment(path, id string) bool {
	for _, seg := range Segments(path) {
		if seg == id {
			return true
		}
	}
	return false
}

// IsStrictDescendant reports whether path lies strictly below
// ancestorPath, i.e. ancestorPath is a dot-delimited proper prefix.
func IsStrictDescendant(path, ancestorPath string) bool {
	if ancestorPath == "" || path == ancestorPath {
		return false
	}
	return strings.HasPrefix(path, ancestorPath+Separator)
}

// ReplacePrefix rewrites a descendant path when its ancestor moves:
// the oldPrefix segments are substituted with newPrefix, the relative
// suffix is preserved. The second return value is false when path does
// not actually live under oldPrefix.
func ReplacePrefix(path, oldPrefix, newPrefix string) (string, bool) {
	if path == oldPrefix {
		return newPrefix, true
	}
	if !IsStrictDescendant(path, oldPrefix) {
		return path, false
	}
	return newPrefix + path[len(oldPrefix):], true
}

// LastSegment returns the final node id of a path, which by invariant is
// the id of the node the path belongs to.
func LastSegment(path string) string {
	if idx := strings.LastIndex(path, Separator); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
