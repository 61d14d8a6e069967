// Package archive maps parsed classifications onto the filesystem and owns
// all writes under the archive root.
package archive

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// maxSegmentLen truncates sanitized path components.
	maxSegmentLen = 100
	// fallbackSegment replaces a segment that sanitizes to nothing.
	fallbackSegment = "untitled"
)

var (
	illegalChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// defaultExtensions maps normalized language tags to canonical short
// extensions; unrecognized tags fall back to "txt".
var defaultExtensions = map[string]string{
	"c":         "c",
	"cpp":       "cpp",
	"c++":       "cpp",
	"csharp":    "cs",
	"c#":        "cs",
	"java":      "java",
	"kotlin":    "kt",
	"scala":     "scala",
	"python":    "py",
	"python3":   "py",
	"py":        "py",
	"ruby":      "rb",
	"php":       "php",
	"javascript": "js",
	"js":        "js",
	"typescript": "ts",
	"ts":        "ts",
	"golang":    "go",
	"go":        "go",
	"rust":      "rs",
	"swift":     "swift",
	"dart":      "dart",
	"elixir":    "ex",
	"erlang":    "erl",
	"racket":    "rkt",
	"mysql":     "sql",
	"mssql":     "sql",
	"oraclesql": "sql",
	"postgresql": "sql",
	"sql":       "sql",
	"bash":      "sh",
	"shell":     "sh",
	"sh":        "sh",
}

// SanitizeSegment turns raw header text into a safe filesystem path
// component: illegal and control characters are removed, whitespace is
// collapsed, surrounding spaces and dots trimmed, and the result truncated.
// An empty result falls back to a fixed placeholder.
func SanitizeSegment(raw string) string {
	return sanitizeSegmentOr(raw, fallbackSegment)
}

func sanitizeSegmentOr(raw, fallback string) string {
	s := illegalChars.ReplaceAllString(raw, "")
	s = controlChars.ReplaceAllString(s, "")
	s = multiSpace.ReplaceAllString(s, " ")
	s = strings.Trim(s, " .")

	if runes := []rune(s); len(runes) > maxSegmentLen {
		s = strings.Trim(string(runes[:maxSegmentLen]), " .")
	}
	if s == "" {
		return fallback
	}
	return s
}

// ExtensionFor maps a language tag to a file extension. Overrides from
// configuration take priority over the built-in table; unknown tags map to
// "txt".
func ExtensionFor(languageTag string, overrides map[string]string) string {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(languageTag)), " ", "")
	if key == "" {
		return "txt"
	}
	if ext, ok := overrides[key]; ok {
		return ext
	}
	if ext, ok := defaultExtensions[key]; ok {
		return ext
	}
	return "txt"
}

// FileName renders the terminal file name: "<problemId>. <title>.<ext>".
func FileName(problemID int, title, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		ext = "txt"
	}
	return fmt.Sprintf("%d. %s.%s", problemID, SanitizeSegment(title), ext)
}

// BuildPath joins sanitized category segments and the file name into a
// path relative to the archive root.
func BuildPath(segments []string, problemID int, title, ext string) string {
	return buildPath(segments, problemID, title, ext, fallbackSegment)
}

func buildPath(segments []string, problemID int, title, ext, fallbackCategory string) string {
	parts := make([]string, 0, len(segments)+1)
	for _, seg := range segments {
		parts = append(parts, sanitizeSegmentOr(seg, fallbackCategory))
	}
	parts = append(parts, FileName(problemID, title, ext))
	return filepath.Join(parts...)
}
