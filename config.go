package haystack_solr

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/pelletier/go-toml/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"gopkg.in/yaml.v2"
)

const (
	// BuildoutSection holds the directory roots shared by all parts.
	BuildoutSection = "buildout"

	DefaultConfigFilename = "buildout.yml"
)

var referencePattern = regexp.MustCompile(`\$\{([^:{}]*):([^{}]+)\}`)

// Buildout is a parsed build file: named sections of string options. The "buildout"
// section carries the directory roots every recipe installs into.
type Buildout struct {
	// Path is the build file the sections were loaded from, if any.
	Path     string
	sections map[string]StringMap
}

// LoadBuildout reads a build file. The format is picked by extension: .yml and .yaml
// are YAML, .toml is TOML and .hcl is HCL. In HCL files, option references have to
// be escaped as $${section:option}.
func LoadBuildout(path string) (*Buildout, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve build file %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read build file: %w", err)
	}
	var sections map[string]StringMap
	switch ext := strings.ToLower(filepath.Ext(abs)); ext {
	case ".yml", ".yaml":
		sections, err = parseYAMLSections(data)
	case ".toml":
		sections, err = parseTOMLSections(data)
	case ".hcl":
		sections, err = parseHCLSections(abs, data)
	default:
		return nil, &UserError{Message: fmt.Sprintf("unsupported build file format %q", ext)}
	}
	if err != nil {
		return nil, &UserError{Message: fmt.Sprintf("unable to parse build file %s", abs), Err: err}
	}
	b, err := NewBuildout(filepath.Dir(abs), sections)
	if err != nil {
		return nil, err
	}
	b.Path = abs
	return b, nil
}

// NewBuildout fills in the default directory roots relative to directory and expands
// ${section:option} references in all sections. The given sections are not modified.
func NewBuildout(directory string, sections map[string]StringMap) (*Buildout, error) {
	b := &Buildout{sections: make(map[string]StringMap, len(sections)+1)}
	for name, options := range sections {
		b.sections[name] = options.Copy()
	}
	main, ok := b.sections[BuildoutSection]
	if !ok {
		main = make(StringMap)
		b.sections[BuildoutSection] = main
	}
	dir := strings.TrimSpace(main["directory"])
	if dir == "" {
		dir = directory
	} else if !filepath.IsAbs(dir) {
		dir = filepath.Join(directory, dir)
	}
	main["directory"] = filepath.Clean(dir)
	defaults := StringMap{
		"parts-directory":        "${buildout:directory}/parts",
		"bin-directory":          "${buildout:directory}/bin",
		"eggs-directory":         "${buildout:directory}/eggs",
		"develop-eggs-directory": "${buildout:directory}/develop-eggs",
		"executable":             defaultExecutable(),
	}
	for key, value := range defaults {
		if strings.TrimSpace(main[key]) == "" {
			main[key] = value
		}
	}
	if err := b.expandReferences(); err != nil {
		return nil, err
	}
	for _, key := range []string{"parts-directory", "bin-directory", "eggs-directory", "develop-eggs-directory"} {
		if p := strings.TrimSpace(main[key]); !filepath.IsAbs(p) {
			main[key] = filepath.Join(main["directory"], p)
		}
	}
	return b, nil
}

func defaultExecutable() string {
	for _, name := range []string{"python3", "python"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return "/usr/bin/python3"
}

// Section returns the options of a section. The returned map is the buildout's own,
// recipes normalize their options in place.
func (b *Buildout) Section(name string) (StringMap, bool) {
	options, ok := b.sections[name]
	return options, ok
}

// SectionNames returns all section names, sorted.
func (b *Buildout) SectionNames() []string {
	names := make([]string, 0, len(b.sections))
	for name := range b.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns an option of a section, or "" if either doesn't exist.
func (b *Buildout) Get(section, key string) string { return b.sections[section][key] }

func (b *Buildout) Directory() string            { return b.Get(BuildoutSection, "directory") }
func (b *Buildout) PartsDirectory() string       { return b.Get(BuildoutSection, "parts-directory") }
func (b *Buildout) BinDirectory() string         { return b.Get(BuildoutSection, "bin-directory") }
func (b *Buildout) EggsDirectory() string        { return b.Get(BuildoutSection, "eggs-directory") }
func (b *Buildout) DevelopEggsDirectory() string { return b.Get(BuildoutSection, "develop-eggs-directory") }
func (b *Buildout) Executable() string           { return b.Get(BuildoutSection, "executable") }

// Parts returns the part names listed in the buildout section's "parts" option.
func (b *Buildout) Parts() []string { return strings.Fields(b.Get(BuildoutSection, "parts")) }

// Namespace returns all sections as plain maps, for templates.
func (b *Buildout) Namespace() map[string]StringMap {
	ns := make(map[string]StringMap, len(b.sections))
	for name, options := range b.sections {
		ns[name] = options.Copy()
	}
	return ns
}

// expandReferences replaces every ${section:option} with the referenced value. An
// empty section name refers to the section the option is in.
func (b *Buildout) expandReferences() error {
	done := make(map[string]bool)
	for _, section := range b.SectionNames() {
		for _, key := range b.sections[section].Keys() {
			if _, err := b.resolve(section, key, done, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Buildout) resolve(section, key string, done map[string]bool, stack []string) (string, error) {
	ref := section + ":" + key
	options, ok := b.sections[section]
	if !ok {
		return "", userErrorf(section, "reference to unknown section in ${%s}", ref)
	}
	value, ok := options[key]
	if !ok {
		return "", userErrorf(section, "reference to unknown option ${%s}", ref)
	}
	if done[ref] {
		return value, nil
	}
	for _, seen := range stack {
		if seen == ref {
			return "", userErrorf(section, "circular reference: %s -> %s", strings.Join(stack, " -> "), ref)
		}
	}
	stack = append(stack, ref)
	var firstErr error
	expanded := referencePattern.ReplaceAllStringFunc(value, func(match string) string {
		if firstErr != nil {
			return match
		}
		groups := referencePattern.FindStringSubmatch(match)
		refSection := groups[1]
		if refSection == "" {
			refSection = section
		}
		resolved, err := b.resolve(refSection, groups[2], done, stack)
		if err != nil {
			firstErr = err
			return match
		}
		return resolved
	})
	if firstErr != nil {
		return "", firstErr
	}
	options[key] = expanded
	done[ref] = true
	return expanded, nil
}

func parseYAMLSections(data []byte) (map[string]StringMap, error) {
	raw := make(map[string]map[string]interface{})
	if err := yaml.Unmarshal(data, raw); err != nil {
		return nil, err
	}
	return stringifySections(raw), nil
}

func parseTOMLSections(data []byte) (map[string]StringMap, error) {
	raw := make(map[string]map[string]any)
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return stringifySections(raw), nil
}

// parseHCLSections reads one block per section. Blocks are either unlabeled, named
// by their type (buildout { ... }), or carry a single label as the section name
// (part "solr" { ... }).
func parseHCLSections(filename string, data []byte) (map[string]StringMap, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, diags
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("unexpected HCL body type %T", file.Body)
	}
	if len(body.Attributes) > 0 {
		for name, attr := range body.Attributes {
			return nil, fmt.Errorf("%s: top-level attribute %q must be inside a section block", attr.SrcRange, name)
		}
	}
	sections := make(map[string]StringMap)
	for _, block := range body.Blocks {
		name := block.Type
		switch len(block.Labels) {
		case 0:
		case 1:
			name = block.Labels[0]
		default:
			return nil, fmt.Errorf("%s: section block takes at most one label", block.DefRange())
		}
		options, ok := sections[name]
		if !ok {
			options = make(StringMap)
			sections[name] = options
		}
		for key, attr := range block.Body.Attributes {
			value, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, diags
			}
			str, err := ctyToString(value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", attr.SrcRange, err)
			}
			options[key] = str
		}
	}
	return sections, nil
}

func ctyToString(value cty.Value) (string, error) {
	if value.IsNull() {
		return "", nil
	}
	ty := value.Type()
	if ty.IsListType() || ty.IsTupleType() || ty.IsSetType() {
		var items []string
		for it := value.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			item, err := ctyToString(elem)
			if err != nil {
				return "", err
			}
			items = append(items, item)
		}
		return strings.Join(items, "\n"), nil
	}
	str, err := convert.Convert(value, cty.String)
	if err != nil {
		return "", fmt.Errorf("value of type %s is not an option string: %w", ty.FriendlyName(), err)
	}
	return str.AsString(), nil
}

func stringifySections[V any](raw map[string]map[string]V) map[string]StringMap {
	sections := make(map[string]StringMap, len(raw))
	for name, options := range raw {
		section := make(StringMap, len(options))
		for key, value := range options {
			section[key] = stringify(value)
		}
		sections[name] = section
	}
	return sections
}

// stringify flattens decoded option values: lists become one item per line.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case []interface{}:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, stringify(item))
		}
		return strings.Join(items, "\n")
	case []string:
		return strings.Join(v, "\n")
	default:
		return fmt.Sprint(v)
	}
}
