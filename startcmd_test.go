package haystack_solr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartCommand(t *testing.T) {
	opts := Options{
		Java:     "/usr/bin/java",
		Host:     "0.0.0.0",
		Port:     "8983",
		JavaOpts: []string{"-Xms512m", "-Xmx1g"},
		JavaArgs: []string{"--module=http"},
	}
	paths := Paths{PartDir: "/srv/parts/solr", DataDir: "/srv/var/solr/data"}

	assert.Equal(t, []string{
		"/usr/bin/java",
		"-Dsolr.solr.home=/srv/parts/solr",
		"-Dsolr.solr.dataDir=/srv/var/solr/data",
		"-Djetty.host=0.0.0.0",
		"-Djetty.port=8983",
		"-Xms512m",
		"-Xmx1g",
		"-jar",
		"/srv/parts/solr/start.jar",
		"--module=http",
	}, StartCommand(opts, paths))
}

func TestStartCommand_NoExtraOptions(t *testing.T) {
	opts := Options{Java: DefaultJava, Host: DefaultHost, Port: DefaultPort}
	paths := Paths{PartDir: "/p", DataDir: "/d"}

	cmd := StartCommand(opts, paths)

	assert.Len(t, cmd, 7)
	assert.Equal(t, "java", cmd[0])
	assert.Equal(t, []string{"-jar", "/p/start.jar"}, cmd[5:])
}
