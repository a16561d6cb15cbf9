package haystack_solr

import (
	"fmt"
	"regexp"
	"sort"

	"gopkg.in/yaml.v2"
)

const DefaultLanguage string = "en"

var languageFilePattern = regexp.MustCompile(`([^/\\]+)\.ya?ml$`)

// Translator looks up the command's user-facing messages in the current language.
type Translator struct {
	language    string
	langStrings map[string]StringMap
	Variables   StringMap
}

// NewTranslator returns a Translator without any variable lookup.
func NewTranslator() *Translator {
	return NewTranslatorVar(StringMap{})
}

// NewTranslatorVar returns a Translator with a variable lookup. It loads every yaml
// file in the languages box, one file per language, and picks the language matching
// the system locale.
func NewTranslatorVar(variables StringMap) *Translator {
	languages := make(map[string]StringMap)
	files, err := GetLanguageFiles()
	if err != nil {
		packageLogger().Warn("unable to load language files", "error", err)
	}
	for filename, content := range files {
		match := languageFilePattern.FindStringSubmatch(filename)
		if match == nil {
			continue
		}
		langStrings := make(StringMap)
		if err := yaml.Unmarshal([]byte(content), langStrings); err != nil {
			packageLogger().Warn("unable to parse language file", "file", filename, "error", err)
			continue
		}
		languages[match[1]] = langStrings
	}
	return newTranslator(languages, variables)
}

func newTranslator(languages map[string]StringMap, variables StringMap) *Translator {
	t := &Translator{langStrings: languages, Variables: variables}
	if err := t.SetLanguage(detectLanguage(t.GetLanguages())); err != nil {
		t.language = DefaultLanguage
	}
	return t
}

// Get returns the localized string for a given key, with template variables expanded.
// Keys without a translation in the current or default language come back as-is.
func (t *Translator) Get(key string) string {
	str, ok := t.getRaw(key, t.language)
	if !ok {
		return key
	}
	return ExpandVariables(str, t.Variables)
}

// Format returns the localized string for key, expanded with the translator's
// variables and vars, vars taking precedence.
func (t *Translator) Format(key string, vars StringMap) string {
	str, ok := t.getRaw(key, t.language)
	if !ok {
		return key
	}
	return ExpandVariables(str, MergeVariables(t.Variables, vars))
}

// GetLanguage returns the identifier (e.g. "en") for the current language.
func (t *Translator) GetLanguage() string { return t.language }

// GetLanguages returns a list of identifiers for all available languages. The default
// language (if it has strings available) will be the first in the list, the rest is
// sorted alphabetically.
func (t *Translator) GetLanguages() (languages []string) {
	hasDefault := false
	for lang := range t.langStrings {
		if lang != DefaultLanguage {
			languages = append(languages, lang)
		} else {
			hasDefault = true
		}
	}
	sort.Strings(languages)
	if hasDefault {
		languages = append([]string{DefaultLanguage}, languages...)
	}
	return languages
}

// SetLanguage given a language code string (e.g.: "en"), sets the translator's
// language.
func (t *Translator) SetLanguage(language string) error {
	if _, ok := t.langStrings[language]; !ok {
		return fmt.Errorf("no language '%s'", language)
	}
	t.language = language
	return nil
}

// getRaw returns a localized string for a given key in a given language, without
// template expansion. If the language doesn't have the key, the default language is
// tried.
func (t *Translator) getRaw(key, language string) (string, bool) {
	if value, ok := t.langStrings[language][key]; ok {
		return value, true
	}
	value, ok := t.langStrings[DefaultLanguage][key]
	return value, ok
}
