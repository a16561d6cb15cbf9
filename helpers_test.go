package haystack_solr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSolrConfig = `<?xml version="1.0" encoding="UTF-8" ?>
<config>
  <lib dir="../../contrib/extraction/lib" />
  <lib dir="../../dist/" regex="apache-solr-cell-\d.*\.jar" />
  <dataDir>${solr.data.dir:}</dataDir>
</config>
`

// writeFile creates path with its parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// newSolrDistribution lays out a minimal Solr distribution with an example tree and
// returns its location.
func newSolrDistribution(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "apache-solr-3.6.2")
	example := filepath.Join(dir, "example")
	writeFile(t, filepath.Join(example, "start.jar"), "PK\x03\x04jar")
	writeFile(t, filepath.Join(example, "etc", "jetty.xml"), "<Configure/>\n")
	writeFile(t, filepath.Join(example, "solr", "conf", "solrconfig.xml"), testSolrConfig)
	writeFile(t, filepath.Join(example, "solr", "conf", "schema.xml"), "<schema name=\"example\"/>\n")
	writeFile(t, filepath.Join(example, "solr", "conf", "stopwords.txt"), "a\nan\nthe\n")
	writeFile(t, filepath.Join(dir, "dist", "apache-solr-core-3.6.2.jar"), "jar")
	return dir
}

type testProject struct {
	Dir      string
	Solr     string
	Buildout *Buildout
}

// newTestProject creates a project directory with installed eggs and a buildout with
// the given part. Options are passed through unchanged, tests add solr-location.
func newTestProject(t *testing.T, part string, options StringMap) *testProject {
	t.Helper()
	dir := t.TempDir()
	for _, egg := range []string{
		"Django-4.2.7-py3.11.egg",
		"Django-3.2-py3.11.egg",
		"django_haystack-3.2.1-py3.11.egg",
		"pkgA-1.0-py3.11.egg",
		"pkgB-0.3-py3.11.egg",
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "eggs", egg), 0755))
	}
	sections := map[string]StringMap{
		BuildoutSection: {
			"parts":      part,
			"executable": "/usr/bin/python3",
		},
		part: options,
	}
	b, err := NewBuildout(dir, sections)
	require.NoError(t, err)
	return &testProject{Dir: dir, Buildout: b}
}

func (p *testProject) egg(name string) string {
	return filepath.Join(p.Dir, "eggs", name)
}
