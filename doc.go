// A build recipe that installs a Solr instance for django-haystack.
//
// A part configured with this recipe gets a copy of the Solr example tree under the
// parts directory, data and log directories under var/, a patched solrconfig.xml and
// a launcher script in the bin directory that starts Solr with the project's Python
// paths and Django settings.
//
// The recipe is driven by a build file (YAML, TOML or HCL), see LoadBuildout, and can
// be used as a library through NewRecipe or from the haystack-solr command.
package haystack_solr
