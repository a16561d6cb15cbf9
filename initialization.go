package haystack_solr

import (
	"fmt"
	"strings"
)

// EnvVar is one NAME VALUE line of the environment-vars option.
type EnvVar struct {
	Name  string
	Value string
}

// Statement returns the Python statement that sets the variable in the launcher's
// process environment.
func (v EnvVar) Statement() string {
	return fmt.Sprintf("os.environ[%s] = %s", pyRepr(v.Name), pyRepr(v.Value))
}

// ParseEnvironmentVars parses one "NAME VALUE" pair per line. The name ends at the
// first space, the rest of the line (trimmed) is the value. Blank lines are skipped,
// a non-blank line without a space is a *FormatError.
func ParseEnvironmentVars(text string) ([]EnvVar, error) {
	var vars []EnvVar
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, " ")
		if !ok {
			return nil, &FormatError{Option: "environment-vars", Line: i + 1, Text: line}
		}
		vars = append(vars, EnvVar{Name: name, Value: strings.TrimSpace(value)})
	}
	return vars, nil
}

// Dedent strips the leading whitespace prefix shared by all non-blank lines. Blank
// lines come back empty, relative indentation is preserved. Tabs and spaces are
// not equivalent: a line indented with a tab and one indented with spaces share no
// prefix.
func Dedent(lines []string) []string {
	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix, first = indent, false
			continue
		}
		n := 0
		for n < len(prefix) && n < len(indent) && prefix[n] == indent[n] {
			n++
		}
		prefix = prefix[:n]
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out[i] = strings.TrimRight(strings.TrimPrefix(line, prefix), " \t\r")
	}
	return out
}

// InitializationBlock returns the code the launcher runs before starting Solr: the
// dedented initialization option followed by one statement per environment variable.
// Blank lines around the initialization code are dropped.
func InitializationBlock(initialization string, vars []EnvVar) []string {
	lines := strings.Split(strings.ReplaceAll(initialization, "\r\n", "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	block := Dedent(lines)
	for _, v := range vars {
		block = append(block, v.Statement())
	}
	return block
}
