package haystack_solr

import (
	"bytes"
	"sort"
	"strconv"
	"strings"
	"text/template"
)

type StringMap map[string]string

// Keys returns the map's keys in sorted order.
func (m StringMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Copy returns a shallow copy of the map.
func (m StringMap) Copy() StringMap { return MergeVariables(m) }

// templateFunctions are available in message strings as well as in launcher
// templates.
func templateFunctions() template.FuncMap {
	return template.FuncMap{
		"replace": func(from, to, input string) string { return strings.Replace(input, from, to, -1) },
		"trim":    func(input string) string { return strings.Trim(input, " \r\n\t") },
		"split":   func(sep, input string) []string { return strings.Split(input, sep) },
		"join":    func(sep string, input []string) string { return strings.Join(input, sep) },
		"upper":   func(input string) string { return strings.ToUpper(input) },
		"lower":   func(input string) string { return strings.ToLower(input) },
		"title":   func(input string) string { return strings.ToTitle(input) },
		"pyrepr":  pyRepr,
	}
}

// pyRepr quotes a string as a Python string literal. Go's escapes are a subset of
// Python's, so strconv.Quote output is valid Python.
func pyRepr(input string) string { return strconv.Quote(input) }

// ExpandVariables takes a string with template variables like {{.var}} and expands them
// with the given map. On template errors the string is returned unchanged.
func ExpandVariables(str string, variables StringMap) (expanded string) {
	templ, err := template.New("").Funcs(templateFunctions()).Parse(str)
	if err != nil {
		packageLogger().Warn("invalid string template", "error", err)
		return str
	}
	var buf bytes.Buffer
	err = templ.Execute(&buf, variables)
	if err != nil {
		packageLogger().Warn("error executing template", "error", err)
		return str
	}
	return buf.String()
}

// MergeVariables combines several variable maps into a single one. Duplicate keys will
// be overridden by the value in the last map which has the key.
func MergeVariables(varMaps ...StringMap) StringMap {
	merged := make(StringMap)
	for _, vars := range varMaps {
		for k, v := range vars {
			merged[k] = v
		}
	}
	return merged
}
