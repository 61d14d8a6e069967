package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SingleLineHyphenDialect(t *testing.T) {
	parsed, ok := Parse("// A-B-42. Some Title.cpp\n#include <bits/stdc++.h>\n")
	require.True(t, ok)

	assert.Equal(t, []string{"A", "B"}, parsed.Segments)
	assert.Equal(t, 42, parsed.ProblemID)
	assert.Equal(t, "Some Title", parsed.Title)
	assert.Equal(t, "cpp", parsed.ExtHint)
}

func TestParse_MultiLineDialect(t *testing.T) {
	code := "// Sliding Window\n// Fixed Length\n// 1456. Max Vowels in Substring.cpp\nint main() {}\n"
	parsed, ok := Parse(code)
	require.True(t, ok)

	assert.Equal(t, []string{"Sliding Window", "Fixed Length"}, parsed.Segments)
	assert.Equal(t, 1456, parsed.ProblemID)
	assert.Equal(t, "Max Vowels in Substring", parsed.Title)
	assert.Equal(t, "cpp", parsed.ExtHint)
}

func TestParse_HashMarker(t *testing.T) {
	code := "# Two Pointers\n# 167. Two Sum II.py\nclass Solution: pass\n"
	parsed, ok := Parse(code)
	require.True(t, ok)

	assert.Equal(t, []string{"Two Pointers"}, parsed.Segments)
	assert.Equal(t, 167, parsed.ProblemID)
	assert.Equal(t, "Two Sum II", parsed.Title)
	assert.Equal(t, "py", parsed.ExtHint)
}

func TestParse_BracketTagDialect(t *testing.T) {
	parsed, ok := Parse("// [Math][Geometry] 892. Surface Area.go\npackage main\n")
	require.True(t, ok)

	assert.Equal(t, []string{"Math", "Geometry"}, parsed.Segments)
	assert.Equal(t, 892, parsed.ProblemID)
	assert.Equal(t, "Surface Area", parsed.Title)
	assert.Equal(t, "go", parsed.ExtHint)
}

func TestParse_CJKBracketsAndSegments(t *testing.T) {
	parsed, ok := Parse("// 【滑动窗口】 2379. 得到 K 个黑块的最少涂色次数.cpp\n")
	require.True(t, ok)

	assert.Equal(t, []string{"滑动窗口"}, parsed.Segments)
	assert.Equal(t, 2379, parsed.ProblemID)
	assert.Equal(t, "得到 K 个黑块的最少涂色次数", parsed.Title)
}

func TestParse_TagListPrefixFirstLine(t *testing.T) {
	code := "// tags: Math, DP\n// 70. Climbing Stairs.rs\nfn main() {}\n"
	parsed, ok := Parse(code)
	require.True(t, ok)

	assert.Equal(t, []string{"Math", "DP"}, parsed.Segments)
	assert.Equal(t, 70, parsed.ProblemID)
	assert.Equal(t, "Climbing Stairs", parsed.Title)
	assert.Equal(t, "rs", parsed.ExtHint)
}

func TestParse_NoExtensionHint(t *testing.T) {
	parsed, ok := Parse("// Graphs\n// 207. Course Schedule\n")
	require.True(t, ok)

	assert.Equal(t, 207, parsed.ProblemID)
	assert.Equal(t, "Course Schedule", parsed.Title)
	assert.Empty(t, parsed.ExtHint)
}

func TestParse_Totality(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"empty", ""},
		{"only blank lines", "\n\n   \n"},
		{"no comment", "int main() { return 0; }"},
		{"single segment", "// OnlyOneSegment.cpp\nint x;"},
		{"single plain line", "// just a note about the solution"},
		{"include directive", "#include <bits/stdc++.h>\nint main() {}"},
		{"terminal without id", "// Math\n// Two Sum.cpp"},
		{"terminal id without dot", "// Math\n// 42 Two Sum"},
		{"category looks like filename", "// 12. Nested\n// 42. Two Sum.cpp"},
		{"category with extension", "// notes.txt\n// 42. Two Sum.cpp"},
		{"bracket tags without terminal", "// [Math][DP]"},
		{"comment after code", "int x;\n// Math\n// 42. Two Sum.cpp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Parse(tt.code)
			assert.False(t, ok)
		})
	}
}

func TestParse_MarkerRunStopsAtCode(t *testing.T) {
	// The first non-comment line ends the block; trailing comments deeper
	// in the file must not be collected.
	code := "// Math\n// 1. Two Sum.cpp\nint main() {}\n// 2. Add Two Numbers.cpp\n"
	parsed, ok := Parse(code)
	require.True(t, ok)
	assert.Equal(t, 1, parsed.ProblemID)
}

func TestParse_MixedMarkersDoNotContinueRun(t *testing.T) {
	// Block collection requires the same marker on every line.
	_, ok := Parse("// Math\n# 42. Two Sum.py\n")
	assert.False(t, ok)
}

func TestParse_HeuristicExclusivity(t *testing.T) {
	valid := []string{
		"// A-B-42. Some Title.cpp",
		"// Sliding Window\n// Fixed\n// 1456. Max Vowels.cpp",
		"// [Math][Geometry] 892. Surface Area.go",
		"# Two Pointers\n# 167. Two Sum II.py",
	}

	for _, code := range valid {
		parsed, ok := Parse(code)
		require.True(t, ok, "input: %q", code)
		for _, seg := range parsed.Segments {
			assert.False(t, looksLikeFilename(seg), "category %q must not look like a filename", seg)
		}
	}
}

func TestLooksLikeFilename(t *testing.T) {
	assert.True(t, looksLikeFilename("two-sum-solution"))
	assert.True(t, looksLikeFilename("42. Two Sum"))
	assert.True(t, looksLikeFilename("solution.CPP"))
	assert.False(t, looksLikeFilename("Sliding Window"))
	assert.False(t, looksLikeFilename("one-hyphen"))
	assert.False(t, looksLikeFilename("v2.x notes"))
}

func TestParse_BlankAndEmptyCommentLines(t *testing.T) {
	code := "\n\n//\n// Math\n//\n// 42. Two Sum.cpp\nint x;\n"
	parsed, ok := Parse(code)
	require.True(t, ok)
	assert.Equal(t, []string{"Math"}, parsed.Segments)
	assert.Equal(t, 42, parsed.ProblemID)
}
