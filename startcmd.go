package haystack_solr

import "path/filepath"

// StartCommand returns the java command line that starts the part's Solr: solr home
// and data dir, the jetty address, java-opts, the start jar and java-args.
func StartCommand(opts Options, paths Paths) []string {
	cmd := []string{
		opts.Java,
		"-Dsolr.solr.home=" + paths.PartDir,
		"-Dsolr.solr.dataDir=" + paths.DataDir,
		"-Djetty.host=" + opts.Host,
		"-Djetty.port=" + opts.Port,
	}
	cmd = append(cmd, opts.JavaOpts...)
	cmd = append(cmd, "-jar", filepath.Join(paths.PartDir, "start.jar"))
	return append(cmd, opts.JavaArgs...)
}
