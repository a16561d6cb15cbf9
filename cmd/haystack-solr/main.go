// Command haystack-solr installs Solr instances for django-haystack projects from a
// build file.
//
// Usage:
//
//	haystack-solr install
//	haystack-solr -c buildout.toml update --watch solr
package main

import (
	"os"

	"github.com/grandchild/haystack_solr"
)

func main() {
	os.Exit(haystack_solr.Run())
}
