package haystack_solr

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"sync"

	rice "github.com/GeertJohan/go.rice"
)

// LauncherTemplateName is the embedded launcher template in the templates box.
const LauncherTemplateName = "solr.tmpl"

var (
	boxesOnce    sync.Once
	templatesBox *rice.Box
	languagesBox *rice.Box
	boxesErr     error
)

// openBoxes opens all resource boxes. For go.rice's 'append' and 'embed' modes to
// work, all calls to FindBox() have to be with a literal string parameter.
func openBoxes() error {
	boxesOnce.Do(func() {
		templatesBox, boxesErr = rice.FindBox("templates")
		if boxesErr != nil {
			return
		}
		languagesBox, boxesErr = rice.FindBox("languages")
	})
	return boxesErr
}

// GetTemplate returns an embedded template by name.
func GetTemplate(name string) (string, error) {
	if err := openBoxes(); err != nil {
		return "", fmt.Errorf("open resources: %w", err)
	}
	return getResource(templatesBox, name)
}

// MustGetTemplate is GetTemplate for resources that are known to exist.
func MustGetTemplate(name string) string {
	text, err := GetTemplate(name)
	if err != nil {
		panic(err)
	}
	return text
}

// GetLanguageFiles returns the contents of all language files, by file name.
func GetLanguageFiles() (map[string]string, error) {
	if err := openBoxes(); err != nil {
		return nil, fmt.Errorf("open resources: %w", err)
	}
	return getResourcesFiltered(languagesBox, "", regexp.MustCompile(`\.ya?ml$`))
}

func getResource(box *rice.Box, name string) (string, error) {
	if box == nil {
		return "", fmt.Errorf("resource box for %q doesn't exist", name)
	}
	text, err := box.String(name)
	if err != nil {
		return "", fmt.Errorf("resource %s/%s: %w", box.Name(), name, err)
	}
	return text, nil
}

// getResourcesFiltered returns all files directly inside dir whose name matches
// filter.
func getResourcesFiltered(box *rice.Box, dir string, filter *regexp.Regexp) (map[string]string, error) {
	if box == nil {
		return nil, fmt.Errorf("resource box for %q doesn't exist", dir)
	}
	files := make(map[string]string)
	err := box.Walk(dir, func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !filter.MatchString(path.Base(name)) {
			return nil
		}
		text, err := box.String(name)
		if err != nil {
			return err
		}
		files[name] = text
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list resources in %s/%s: %w", box.Name(), dir, err)
	}
	return files, nil
}
