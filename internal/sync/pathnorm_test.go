package sync

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRelPath_Slashes(t *testing.T) {
	assert.Equal(t, "a/b/c.md", normalizeRelPath(`a\b\c.md`))
	assert.Equal(t, "a/b/c.md", normalizeRelPath("/a/b/c.md/"))
}

func TestNormalizeRelPath_NFCNormalization(t *testing.T) {
	nfd := "cafe\u0301.md" // NFD: "e" + combining acute accent
	nfc := "caf\u00e9.md"  // NFC: precomposed "e" with acute

	assert.Equal(t, nfc, normalizeRelPath(nfd))
	assert.Equal(t, nfc, normalizeRelPath(nfc))
}

func TestNormalizeRelPath_NFCAcrossSeparators(t *testing.T) {
	nfd := "notes\\cafe\u0301\\nested.md"
	want := "notes/caf\u00e9/nested.md"

	assert.Equal(t, want, normalizeRelPath(nfd))
}

func TestLongPathSafe_BelowThreshold(t *testing.T) {
	short := "/tmp/notes/note.md"
	assert.Equal(t, short, longPathSafe(short))
}

func TestLongPathSafe_AboveThreshold(t *testing.T) {
	long := "/tmp/" + strings.Repeat("a", longPathThreshold)
	got := longPathSafe(long)

	if runtime.GOOS != "windows" {
		assert.Equal(t, long, got)

		return
	}

	assert.True(t, len(got) > len(long))
	assert.Equal(t, longPathPrefix+long, got)
}

func TestLongPathSafe_AlreadyPrefixed(t *testing.T) {
	long := longPathPrefix + "/tmp/" + strings.Repeat("a", longPathThreshold)
	assert.Equal(t, long, longPathSafe(long))
}
