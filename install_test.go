package haystack_solr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstallSource(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "example")
	writeFile(t, filepath.Join(src, "start.jar"), "0123456789")
	writeFile(t, filepath.Join(src, "solr", "conf", "schema.xml"), "<schema/>")
	require.NoError(t, os.Mkdir(filepath.Join(src, "logs"), 0755))
	require.NoError(t, os.Chmod(filepath.Join(src, "start.jar"), 0750))
	require.NoError(t, os.Symlink("solr/conf", filepath.Join(src, "conf")))
	return src
}

func TestNewInstaller_ListsTree(t *testing.T) {
	src := newInstallSource(t)

	i, err := NewInstaller(src, "")

	require.NoError(t, err)
	var targets []string
	for _, f := range i.Files() {
		targets = append(targets, f.Target)
	}
	assert.Equal(t, []string{
		"conf",
		"logs",
		"solr",
		filepath.Join("solr", "conf"),
		filepath.Join("solr", "conf", "schema.xml"),
		"start.jar",
	}, targets)
	assert.Equal(t, "19B", i.TotalSizeString())
	assert.Equal(t, int64(0), i.Size())
	assert.Equal(t, 0.0, i.Progress())
	assert.Equal(t, "conf", i.NextFile().Target)
}

func TestNewInstaller_SourceErrors(t *testing.T) {
	_, err := NewInstaller(filepath.Join(t.TempDir(), "missing"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)

	file := filepath.Join(t.TempDir(), "file")
	writeFile(t, file, "x")
	_, err = NewInstaller(file, "")
	assert.ErrorContains(t, err, "not a directory")
}

func TestNewInstaller_SymlinkedSource(t *testing.T) {
	src := newInstallSource(t)
	link := filepath.Join(t.TempDir(), "current")
	require.NoError(t, os.Symlink(src, link))

	i, err := NewInstaller(link, "")

	require.NoError(t, err)
	assert.Len(t, i.Files(), 6)
}

func TestInstaller_Install(t *testing.T) {
	src := newInstallSource(t)
	target := filepath.Join(t.TempDir(), "parts", "solr")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))
	i, err := NewInstaller(src, "")
	require.NoError(t, err)
	var statuses []InstallStatus
	i.SetProgressFunction(func(s InstallStatus) { statuses = append(statuses, s) })

	require.NoError(t, i.CheckInstallDir(target))
	require.NoError(t, i.Install())

	assert.True(t, i.Done)
	assert.Equal(t, 1.0, i.Progress())
	assert.Equal(t, "19B", i.SizeString())
	assert.Nil(t, i.NextFile())
	require.Len(t, statuses, 7)
	assert.False(t, statuses[0].Done)
	assert.True(t, statuses[6].Done)

	assert.Equal(t, "0123456789", readFile(t, filepath.Join(target, "start.jar")))
	info, err := os.Stat(filepath.Join(target, "start.jar"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0750), info.Mode().Perm())
	assert.DirExists(t, filepath.Join(target, "logs"))
	link, err := os.Readlink(filepath.Join(target, "conf"))
	require.NoError(t, err)
	assert.Equal(t, "solr/conf", link)
	assert.Equal(t, "<schema/>", readFile(t, filepath.Join(target, "conf", "schema.xml")))
}

func TestInstaller_InstallWithoutTarget(t *testing.T) {
	i, err := NewInstaller(newInstallSource(t), "")
	require.NoError(t, err)

	assert.ErrorContains(t, i.Install(), "no target")
}

func TestInstaller_EmptyTreeProgress(t *testing.T) {
	i, err := NewInstaller(t.TempDir(), filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	i.SetProgressFunction(nil)

	require.NoError(t, i.Install())

	assert.Equal(t, 1.0, i.Progress())
	assert.DirExists(t, i.Target)
}

func TestCheckInstallDir_Errors(t *testing.T) {
	i, err := NewInstaller(newInstallSource(t), "")
	require.NoError(t, err)

	err = i.CheckInstallDir(filepath.Join(t.TempDir(), "missing", "solr"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	file := filepath.Join(t.TempDir(), "file")
	writeFile(t, file, "x")
	err = i.CheckInstallDir(filepath.Join(file, "solr"))
	assert.ErrorContains(t, err, "not a directory")
	assert.Empty(t, i.Target)
}

func TestCheckInstallDir_ReadOnlyParent(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can write to read-only directories")
	}
	i, err := NewInstaller(newInstallSource(t), "")
	require.NoError(t, err)
	parent := filepath.Join(t.TempDir(), "ro")
	require.NoError(t, os.Mkdir(parent, 0555))
	t.Cleanup(func() { _ = os.Chmod(parent, 0755) })

	err = i.CheckInstallDir(filepath.Join(parent, "solr"))

	assert.ErrorIs(t, err, ErrNotWritable)
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writeFile(t, src, "content")
	require.NoError(t, os.WriteFile(dst, []byte("much longer old content"), 0644))

	require.NoError(t, copyFile(src, dst, 0600))

	assert.Equal(t, "content", readFile(t, dst))
	assert.ErrorIs(t, copyFile(filepath.Join(dir, "missing"), dst, 0600), os.ErrNotExist)
}
