package haystack_solr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvironmentVars(t *testing.T) {
	vars, err := ParseEnvironmentVars("\nLANG en_US.UTF-8\n\n  JAVA_HOME   /usr/lib/jvm/default \nGREETING hello world\n")

	require.NoError(t, err)
	assert.Equal(t, []EnvVar{
		{Name: "LANG", Value: "en_US.UTF-8"},
		{Name: "JAVA_HOME", Value: "/usr/lib/jvm/default"},
		{Name: "GREETING", Value: "hello world"},
	}, vars)
}

func TestParseEnvironmentVars_Empty(t *testing.T) {
	vars, err := ParseEnvironmentVars("  \n\n")

	require.NoError(t, err)
	assert.Empty(t, vars)
}

func TestParseEnvironmentVars_MissingValue(t *testing.T) {
	_, err := ParseEnvironmentVars("A 1\n\nNOVALUE")

	var formatErr *FormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, "environment-vars", formatErr.Option)
	assert.Equal(t, 3, formatErr.Line)
	assert.Equal(t, `bad format in "environment-vars", line 3: "NOVALUE"`, err.Error())
}

func TestEnvVarStatement(t *testing.T) {
	v := EnvVar{Name: "MSG", Value: `say "hi"\now`}

	assert.Equal(t, `os.environ["MSG"] = "say \"hi\"\\now"`, v.Statement())
}

func TestDedent(t *testing.T) {
	lines := Dedent([]string{
		"    import os",
		"",
		"    if os.name:",
		"        pass   ",
		"\t",
	})

	assert.Equal(t, []string{"import os", "", "if os.name:", "    pass", ""}, lines)
}

func TestDedent_NoCommonIndent(t *testing.T) {
	lines := Dedent([]string{"a = 1", "  b = 2"})

	assert.Equal(t, []string{"a = 1", "  b = 2"}, lines)
}

func TestDedent_MixedTabsAndSpaces(t *testing.T) {
	assert.Equal(t,
		[]string{"\t    x = 1", "    y = 2"},
		Dedent([]string{"\t    x = 1", "    y = 2"}),
	)
	assert.Equal(t,
		[]string{"x = 1", "  y = 2"},
		Dedent([]string{"\t\tx = 1", "\t\t  y = 2"}),
	)
	assert.Equal(t,
		[]string{"\tx = 1", " y = 2"},
		Dedent([]string{"\t\tx = 1", "\t y = 2"}),
	)
}

func TestInitializationBlock(t *testing.T) {
	block := InitializationBlock(
		"\r\n\n    import logging\r\n    logging.basicConfig()\n\n",
		[]EnvVar{{Name: "TZ", Value: "UTC"}},
	)

	assert.Equal(t, []string{
		"import logging",
		"logging.basicConfig()",
		`os.environ["TZ"] = "UTC"`,
	}, block)
}

func TestInitializationBlock_Empty(t *testing.T) {
	assert.Empty(t, InitializationBlock("", nil))
	assert.Empty(t, InitializationBlock("\n   \n", nil))
}
