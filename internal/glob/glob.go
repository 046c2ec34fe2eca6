// Package glob expands source wildcard patterns into concrete file sets.
// It supports recursive "**" markers, exclusion patterns and a guard that
// keeps expansion out of the build system's own output directories.
package glob

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// RecursiveMarker is the path segment that enables subtree recursion.
const RecursiveMarker = "**"

// BuildDirMarkerSuffix is the suffix of the sentinel file that identifies a
// build output container. A directory "foo" is a build directory when it
// contains a file named "foo.bg".
const BuildDirMarkerSuffix = ".bg"

// Expand resolves the include patterns against baseDir, subtracts the
// exclude patterns and returns the surviving paths sorted. The prefix is
// prepended to every pattern before splitting; a leading "~/" in the prefix
// expands to the home directory.
//
// Filesystem errors (unreadable directories, broken symlinks) degrade to
// fewer matches rather than failing the whole expansion.
func Expand(baseDir, prefix string, patterns, excludePatterns []string) []string {
	included := expandPatterns(baseDir, prefix, patterns)
	for p := range expandPatterns(baseDir, prefix, excludePatterns) {
		delete(included, p)
	}

	result := make([]string, 0, len(included))
	for p := range included {
		result = append(result, p)
	}
	sort.Strings(result)
	return result
}

func expandPatterns(baseDir, prefix string, patterns []string) map[string]struct{} {
	result := make(map[string]struct{})

	expandedPrefix := prefix
	if strings.HasPrefix(expandedPrefix, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			expandedPrefix = home + expandedPrefix[1:]
		}
	}

	for _, pattern := range patterns {
		pattern = expandedPrefix + pattern
		pattern = strings.ReplaceAll(pattern, "\\", "/")

		root := baseDir
		if filepath.IsAbs(pattern) {
			if vol := filepath.VolumeName(pattern); vol != "" {
				// Drive-relative root on platforms with drive letters.
				root = vol + "/"
				pattern = pattern[len(vol):]
			} else {
				root = "/"
			}
		}

		walk(result, splitPattern(pattern), root)
	}

	return result
}

// splitPattern splits a pattern on "/", dropping empty segments.
func splitPattern(pattern string) []string {
	var parts []string
	for _, part := range strings.Split(pattern, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// walk consumes leading recursive markers and matches the next segment
// against the entries of dir.
func walk(result map[string]struct{}, parts []string, dir string) {
	if len(parts) == 0 || IsBuildDir(dir) {
		return
	}

	recursive := false
	part := parts[0]
	parts = parts[1:]

	// Consecutive markers collapse to one level of recursion. A pattern
	// ending on a marker matches everything at that level.
	for part == RecursiveMarker {
		recursive = true
		if len(parts) == 0 {
			part = "*"
			break
		}
		part = parts[0]
		parts = parts[1:]
	}

	match(result, dir, part, parts, recursive)
}

func match(result map[string]struct{}, dir, pattern string, rest []string, recursive bool) {
	// Directory listings never contain "." or "..", so literal dot
	// segments resolve directly: "." stays put, ".." steps up. A pattern
	// cannot end on one; a directory is not a source file.
	if pattern == "." || pattern == ".." {
		if len(rest) == 0 {
			return
		}
		next := filepath.Join(dir, pattern)
		if st, err := os.Stat(next); err == nil && st.IsDir() {
			walk(result, rest, next)
		}
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Unreadable directory: no match for this branch.
		return
	}

	// Hidden entries are only found by literal names; wildcarded patterns
	// skip them, mirroring conventional glob semantics.
	includeHidden := !isPattern(pattern)
	wantDir := len(rest) > 0

	for _, entry := range entries {
		name := entry.Name()
		hidden := strings.HasPrefix(name, ".")
		full := filepath.Join(dir, name)

		isDir := entry.IsDir()
		if !isDir && entry.Type()&os.ModeSymlink != 0 {
			if st, err := os.Stat(full); err == nil {
				isDir = st.IsDir()
			}
		}
		if isDir && IsBuildDir(full) {
			continue
		}

		if matched, _ := path.Match(pattern, name); matched && (includeHidden || !hidden) {
			if wantDir {
				if isDir {
					walk(result, rest, full)
				}
			} else if !isDir {
				result[canonicalPath(full)] = struct{}{}
			}
		}

		if recursive && isDir && !hidden {
			match(result, full, pattern, rest, true)
		}
	}
}

// IsBuildDir reports whether dir is a build output container, detected by
// the presence of its sentinel marker file. Such directories never
// contribute matches: otherwise a build sharing a root with its sources
// would treat its own previous outputs as source files.
func IsBuildDir(dir string) bool {
	marker := filepath.Join(dir, filepath.Base(dir)+BuildDirMarkerSuffix)
	if st, err := os.Stat(marker); err == nil && !st.IsDir() {
		return true
	}
	return false
}

// isPattern reports whether s contains glob metacharacters.
func isPattern(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// canonicalPath resolves p to an absolute, symlink-normalized form.
func canonicalPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return filepath.Clean(abs)
}
