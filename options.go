package haystack_solr

import (
	"strings"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = "8070"
	DefaultJava = "java"
)

// RequiredEggs are always part of the launcher's working set.
var RequiredEggs = []string{"django-haystack", "Django"}

// Options are the normalized options of a haystack-solr part.
type Options struct {
	Recipe             string
	Host               string
	Port               string
	Eggs               []string
	DjangoSettings     string
	DjangoSettingsFile string
	SolrLocation       string
	SolrConfig         string
	Java               string
	JavaOpts           []string
	JavaArgs           []string
	Initialization     string
	EnvironmentVars    []EnvVar
	ExtraPaths         []string
	LauncherTemplate   string
}

// ParseOptions validates and normalizes the options of part name. Defaults are
// written back into options, so the build file's view of the part matches what the
// recipe uses.
func ParseOptions(b *Buildout, name string, options StringMap) (Options, error) {
	get := func(key, fallback string) string {
		if value, ok := options[key]; ok {
			return strings.TrimSpace(value)
		}
		return fallback
	}
	eggs := ""
	if b != nil {
		eggs = b.Get(BuildoutSection, "eggs")
	}
	opts := Options{
		Recipe:             get("recipe", ""),
		Host:               get("host", DefaultHost),
		Port:               get("port", DefaultPort),
		Eggs:               splitRequirements(get("eggs", eggs)),
		DjangoSettings:     get("django-settings", ""),
		DjangoSettingsFile: get("django-settings-file", ""),
		SolrLocation:       get("solr-location", ""),
		SolrConfig:         get("solr-config", ""),
		Java:               get("java", DefaultJava),
		JavaOpts:           splitLines(options["java-opts"]),
		JavaArgs:           splitLines(options["java-args"]),
		Initialization:     options["initialization"],
		ExtraPaths:         strings.Fields(options["extra-paths"]),
		LauncherTemplate:   get("launcher-template", ""),
	}
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.Port == "" {
		opts.Port = DefaultPort
	}
	if opts.Java == "" {
		opts.Java = DefaultJava
	}
	if opts.DjangoSettings == "" && opts.DjangoSettingsFile == "" {
		return opts, userErrorf(name, "one between 'django-settings' and 'django-settings-file' must be specified")
	}
	if opts.SolrLocation == "" {
		return opts, userErrorf(name, "'solr-location' must be specified")
	}
	vars, err := ParseEnvironmentVars(options["environment-vars"])
	if err != nil {
		return opts, &UserError{Part: name, Message: "invalid environment-vars", Err: err}
	}
	opts.EnvironmentVars = vars

	options["host"] = opts.Host
	options["port"] = opts.Port
	options["eggs"] = strings.Join(opts.Eggs, "\n")
	options["django-settings"] = opts.DjangoSettings
	options["django-settings-file"] = opts.DjangoSettingsFile
	options["solr-location"] = opts.SolrLocation
	options["solr-config"] = opts.SolrConfig
	options["java-opts"] = strings.Join(opts.JavaOpts, "\n")
	options["java-args"] = strings.Join(opts.JavaArgs, "\n")
	return opts, nil
}

// Requirements returns the eggs the launcher needs: the required ones followed by the
// part's own, without duplicates. Entries are compared by project name, so
// "Django>=4.2" replaces the bare required "Django".
func (o Options) Requirements() []string {
	index := make(map[string]int)
	var reqs []string
	for i, egg := range append(append([]string{}, RequiredEggs...), o.Eggs...) {
		key := normalizeProject(egg)
		if req, err := ParseRequirement(egg); err == nil {
			key = normalizeProject(req.Project)
		}
		if j, ok := index[key]; ok {
			if i >= len(RequiredEggs) && j < len(RequiredEggs) {
				reqs[j] = egg
			}
			continue
		}
		index[key] = len(reqs)
		reqs = append(reqs, egg)
	}
	return reqs
}

// splitRequirements splits the eggs option. Lines carrying version specifiers,
// extras or markers are one requirement each, other lines may list several
// whitespace separated names.
func splitRequirements(text string) []string {
	var reqs []string
	for _, line := range splitLines(text) {
		if strings.ContainsAny(line, "<>=!~[;") {
			reqs = append(reqs, line)
			continue
		}
		reqs = append(reqs, strings.Fields(line)...)
	}
	return reqs
}

// splitLines returns the trimmed, non-blank lines of a multi-line option.
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
