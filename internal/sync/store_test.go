package sync

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.json")

	s1 := NewMetadataStore(path, nil)
	s1.SetFileInfo("a/b.md", "WEB1", 1000, 1000, "parent1", DomainMarkdown, "hashA", 900)
	s1.SetFileInfo("c.md", "WEB2", 2000, 2000, "", DomainMarkdown, "hashB", 1800)
	s1.SetDirInfo("a", "DIR1", "")

	require.NoError(t, s1.Save())

	s2 := NewMetadataStore(path, nil)
	require.NoError(t, s2.Load())

	assert.Equal(t, s1.AllFiles(), s2.AllFiles())
	assert.Equal(t, s1.AllDirs(), s2.AllDirs())

	p, ok := s2.FindCloudFileByHash("hashA", "")
	assert.True(t, ok)
	assert.Equal(t, "a/b.md", p)

	p, ok = s2.FindCloudFileByHash("hashB", "")
	assert.True(t, ok)
	assert.Equal(t, "c.md", p)
}

func TestMetadataStoreLoadMissingFileIsNotError(t *testing.T) {
	dir := t.TempDir()
	s := NewMetadataStore(filepath.Join(dir, "nope.json"), nil)

	require.NoError(t, s.Load())
	assert.Empty(t, s.AllFiles())
}

func TestMetadataStoreLoadMalformedFileIsWarningNotFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.json")

	require.NoError(t, writeTestFile(t, path, "{not json"))

	s := NewMetadataStore(path, nil)
	require.NoError(t, s.Load())
	assert.Empty(t, s.AllFiles())
}

func TestUpdateContentHashMaintainsReverseIndex(t *testing.T) {
	s := NewMetadataStore(filepath.Join(t.TempDir(), "m.json"), nil)

	s.SetFileInfo("b.md", "WEB2", 100, 100, "", DomainMarkdown, "H1", 0)
	s.SetFileInfo("a.md", "WEB1", 100, 100, "", DomainMarkdown, "H1", 0)

	s.UpdateContentHash("a.md", "H2")

	// "a.md" now holds H2; the H1 pointer should have re-pointed to "b.md".
	p, ok := s.FindCloudFileByHash("H1", "")
	assert.True(t, ok)
	assert.Equal(t, "b.md", p)

	p, ok = s.FindCloudFileByHash("H2", "")
	assert.True(t, ok)
	assert.Equal(t, "a.md", p)
}

func TestRemoveFileEvictsHashIndexWithSelfHeal(t *testing.T) {
	s := NewMetadataStore(filepath.Join(t.TempDir(), "m.json"), nil)

	s.SetFileInfo("b.md", "WEB2", 100, 100, "", DomainMarkdown, "H1", 0)
	s.SetFileInfo("a.md", "WEB1", 100, 100, "", DomainMarkdown, "H1", 0)

	s.RemoveFile("a.md")

	p, ok := s.FindCloudFileByHash("H1", "")
	assert.True(t, ok)
	assert.Equal(t, "b.md", p)

	s.RemoveFile("b.md")

	_, ok = s.FindCloudFileByHash("H1", "")
	assert.False(t, ok)
}

func TestFindCloudFileByHashExcludesGivenPath(t *testing.T) {
	s := NewMetadataStore(filepath.Join(t.TempDir(), "m.json"), nil)
	s.SetFileInfo("a.md", "WEB1", 100, 100, "", DomainMarkdown, "H1", 0)

	_, ok := s.FindCloudFileByHash("H1", "a.md")
	assert.False(t, ok)
}

func writeTestFile(t *testing.T, path, content string) error {
	t.Helper()

	return atomicWriteFile(path, []byte(content))
}
