package haystack_solr

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
)

// LauncherMode is rwx for owner and group, r-x for others.
const LauncherMode os.FileMode = 0775

// Renderer renders a template source with a namespace of substitution variables.
type Renderer interface {
	Render(source string, namespace map[string]any) (string, error)
}

// TemplateRenderer renders text/template sources. Besides the builtins, templates can
// use replace, trim, split, join, upper, lower, title and pyrepr, which quotes a
// string as a Python literal.
type TemplateRenderer struct {
	// Name is used in template error messages.
	Name string
}

// Render parses source and executes it with namespace. Missing keys are errors, so a
// template typo doesn't end up as "<no value>" in a launcher script.
func (r TemplateRenderer) Render(source string, namespace map[string]any) (string, error) {
	name := r.Name
	if name == "" {
		name = "launcher"
	}
	templ, err := template.New(name).Funcs(templateFunctions()).Option("missingkey=error").Parse(source)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := templ.Execute(&buf, namespace); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}

// launcherTemplate returns the part's launcher-template file, or the embedded default.
func launcherTemplate(opts Options) (string, error) {
	if opts.LauncherTemplate == "" {
		return GetTemplate(LauncherTemplateName)
	}
	data, err := os.ReadFile(opts.LauncherTemplate)
	if err != nil {
		return "", fmt.Errorf("read launcher template: %w", err)
	}
	return string(data), nil
}

// writeLauncher writes the rendered script and sets LauncherMode. Chmod runs even if
// the file existed before with other permissions.
func writeLauncher(path, content string) error {
	if err := os.WriteFile(path, []byte(content), LauncherMode); err != nil {
		return fmt.Errorf("write launcher: %w", err)
	}
	if err := os.Chmod(path, LauncherMode); err != nil {
		return fmt.Errorf("set launcher permissions: %w", err)
	}
	return nil
}
