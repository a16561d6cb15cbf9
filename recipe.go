package haystack_solr

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/pslog"
)

// RecipeNames are the recipe option values that select this recipe.
var RecipeNames = []string{"haystack-solr", "abstract.recipe.haystack-solr"}

// IsRecipe reports whether a part's recipe option selects this recipe.
func IsRecipe(recipe string) bool {
	recipe = strings.TrimSpace(recipe)
	if name, _, ok := strings.Cut(recipe, ":"); ok {
		recipe = name
	}
	for _, name := range RecipeNames {
		if recipe == name {
			return true
		}
	}
	return false
}

// Paths are the locations a part installs into.
type Paths struct {
	PartDir    string
	VarDir     string
	DataDir    string
	LogDir     string
	Script     string
	SolrConfig string
	Schema     string
	PidFile    string
	LogFile    string
}

// NewPaths derives the part's paths from the buildout's directory roots.
func NewPaths(b *Buildout, name string) Paths {
	partDir := filepath.Join(b.PartsDirectory(), name)
	varDir := filepath.Join(b.Directory(), "var", name)
	logDir := filepath.Join(varDir, "logs")
	confDir := filepath.Join(partDir, "solr", "conf")
	return Paths{
		PartDir:    partDir,
		VarDir:     varDir,
		DataDir:    filepath.Join(varDir, "data"),
		LogDir:     logDir,
		Script:     filepath.Join(b.BinDirectory(), name),
		SolrConfig: filepath.Join(confDir, "solrconfig.xml"),
		Schema:     filepath.Join(confDir, "schema.xml"),
		PidFile:    filepath.Join(varDir, "solr.pid"),
		LogFile:    filepath.Join(logDir, "solr.log"),
	}
}

// Recipe installs one haystack-solr part.
type Recipe struct {
	Name     string
	Buildout *Buildout
	Options  Options
	Paths    Paths

	options  StringMap
	resolver Resolver
	renderer Renderer
	logger   pslog.Logger
	progress func(InstallStatus)
}

// RecipeOption customizes a Recipe.
type RecipeOption func(*Recipe)

// WithResolver replaces the default EggResolver.
func WithResolver(resolver Resolver) RecipeOption {
	return func(r *Recipe) { r.resolver = resolver }
}

// WithRenderer replaces the default TemplateRenderer.
func WithRenderer(renderer Renderer) RecipeOption {
	return func(r *Recipe) { r.renderer = renderer }
}

// WithLogger sets the recipe's logger.
func WithLogger(logger pslog.Logger) RecipeOption {
	return func(r *Recipe) { r.logger = logger }
}

// WithProgress sets a function that is called for every file of the Solr tree copy.
func WithProgress(progress func(InstallStatus)) RecipeOption {
	return func(r *Recipe) { r.progress = progress }
}

// NewRecipe validates the options of part name and computes its paths. It doesn't
// touch the filesystem; configuration problems are returned as *UserError.
func NewRecipe(b *Buildout, name string, options StringMap, opts ...RecipeOption) (*Recipe, error) {
	if b == nil {
		return nil, userErrorf(name, "no buildout")
	}
	if options == nil {
		options = make(StringMap)
	}
	parsed, err := ParseOptions(b, name, options)
	if err != nil {
		return nil, err
	}
	r := &Recipe{
		Name:     name,
		Buildout: b,
		Options:  parsed,
		Paths:    NewPaths(b, name),
		options:  options,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.resolver == nil {
		r.resolver = NewEggResolver(b)
	}
	if r.renderer == nil {
		r.renderer = TemplateRenderer{Name: name}
	}
	r.logger = withSubsystem(r.logger, "recipe").With("part", name)
	return r, nil
}

// NewRecipeFromBuildout creates the recipe for a section of b.
func NewRecipeFromBuildout(b *Buildout, name string, opts ...RecipeOption) (*Recipe, error) {
	options, ok := b.Section(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPart, name)
	}
	return NewRecipe(b, name, options, opts...)
}

// StartCommand returns the java command line of this part.
func (r *Recipe) StartCommand() []string { return StartCommand(r.Options, r.Paths) }

// Install installs the part and returns the paths it created. A fresh install
// (update false) removes the part and var directories and copies the Solr example
// tree; an update keeps them. Both then patch solrconfig.xml and regenerate the
// launcher. Errors are returned as they happen, nothing is rolled back.
func (r *Recipe) Install(update bool) ([]string, error) {
	installed := []string{r.Paths.PartDir, r.Paths.VarDir}
	if !update {
		if err := r.installTree(); err != nil {
			return nil, err
		}
	}
	for _, dir := range []string{r.Paths.DataDir, r.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := r.patchSolrConfig(); err != nil {
		return nil, err
	}
	dists, err := r.resolver.WorkingSet(r.Options.Requirements())
	if err != nil {
		return nil, fmt.Errorf("resolve working set: %w", err)
	}
	r.logger.Debug("resolved working set", "requirements", r.Options.Requirements(), "distributions", len(dists))
	if err := r.removeStaleSchema(); err != nil {
		return nil, err
	}
	if err := r.generateLauncher(dists); err != nil {
		return nil, err
	}
	r.logger.Info("part installed", "update", update, "script", r.Paths.Script)
	return append(installed, r.Paths.Script), nil
}

// Update re-applies the configuration of an installed part: directories, the
// solrconfig patch and the launcher. The Solr tree isn't copied again.
func (r *Recipe) Update() ([]string, error) { return r.Install(true) }

// installTree replaces the part directory with a fresh copy of the Solr example
// tree. The var directory is removed too, data included. The example tree is listed
// first, so a wrong solr-location fails before anything is removed.
func (r *Recipe) installTree() error {
	installer, err := NewInstaller(filepath.Join(r.Options.SolrLocation, "example"), "")
	if err != nil {
		return err
	}
	installer.SetLogger(withSubsystem(r.logger, "installer"))
	installer.SetProgressFunction(r.progress)
	for _, path := range []string{r.Paths.PartDir, r.Paths.VarDir} {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(r.Paths.PartDir), 0755); err != nil {
		return fmt.Errorf("create parts directory: %w", err)
	}
	if err := installer.CheckInstallDir(r.Paths.PartDir); err != nil {
		return err
	}
	if err := installer.Install(); err != nil {
		return err
	}
	r.logger.Info("copied solr example tree", "files", len(installer.Files()), "size", installer.SizeString())
	return nil
}

// patchSolrConfig points the example's relative lib directories at the Solr
// distribution, or replaces solrconfig.xml with the solr-config file if one is set.
func (r *Recipe) patchSolrConfig() error {
	dst := r.Paths.SolrConfig
	if r.Options.SolrConfig != "" {
		info, err := os.Stat(r.Options.SolrConfig)
		if err != nil {
			return fmt.Errorf("solr-config: %w", err)
		}
		if err := copyFile(r.Options.SolrConfig, dst, info.Mode().Perm()); err != nil {
			return err
		}
		r.logger.Debug("copied solr-config", "src", r.Options.SolrConfig, "dst", dst)
		return nil
	}
	info, err := os.Stat(dst)
	if err != nil {
		return fmt.Errorf("solrconfig.xml: %w", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		return fmt.Errorf("read solrconfig.xml: %w", err)
	}
	patched := PatchSolrConfig(string(data), r.Options.SolrLocation)
	if err := os.WriteFile(dst, []byte(patched), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write solrconfig.xml: %w", err)
	}
	return nil
}

// PatchSolrConfig replaces every dir="../.. with dir="<solrLocation>.
func PatchSolrConfig(config, solrLocation string) string {
	return strings.ReplaceAll(config, `dir="../..`, `dir="`+solrLocation)
}

// removeStaleSchema deletes schema.xml so the launcher builds a current one from the
// project's search indexes.
func (r *Recipe) removeStaleSchema() error {
	err := os.Remove(r.Paths.Schema)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale schema: %w", err)
	}
	if err == nil {
		r.logger.Debug("removed stale schema", "path", r.Paths.Schema)
	}
	return nil
}

// LauncherNamespace returns the variables the launcher template is rendered with.
func (r *Recipe) LauncherNamespace(dists []Distribution) map[string]any {
	otherPaths := r.Options.ExtraPaths
	if otherPaths == nil {
		otherPaths = []string{}
	}
	return map[string]any{
		"name":                r.Name,
		"executable":          r.Buildout.Executable(),
		"extrapaths":          Locations(dists),
		"otherpaths":          otherPaths,
		"pidfile":             r.Paths.PidFile,
		"logfile":             r.Paths.LogFile,
		"buildoutdir":         r.Buildout.Directory(),
		"basedir":             r.Paths.PartDir,
		"schema_file":         r.Paths.Schema,
		"djangosettings":      r.Options.DjangoSettings,
		"djangosettings_file": r.Options.DjangoSettingsFile,
		"startcmd":            r.StartCommand(),
		"initialization":      InitializationBlock(r.Options.Initialization, r.Options.EnvironmentVars),
		"host":                r.Options.Host,
		"port":                r.Options.Port,
		"options":             r.options.Copy(),
		"buildout":            r.Buildout.Namespace(),
	}
}

func (r *Recipe) generateLauncher(dists []Distribution) error {
	source, err := launcherTemplate(r.Options)
	if err != nil {
		return err
	}
	content, err := r.renderer.Render(source, r.LauncherNamespace(dists))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.Paths.Script), 0755); err != nil {
		return fmt.Errorf("create bin directory: %w", err)
	}
	return writeLauncher(r.Paths.Script, content)
}
