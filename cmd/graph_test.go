package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputExtension(t *testing.T) {
	assert.Equal(t, "png", outputExtension("out.png"))
	assert.Equal(t, "json", outputExtension("graph.json"))
	assert.Equal(t, "gv", outputExtension("a/b/flow.gv"))
	assert.Equal(t, "", outputExtension("noext"))
}

func TestCommaList(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("exclude-functions", "", "")
	require.NoError(t, flags.Set("exclude-functions", "a, b,,c"))

	assert.Equal(t, []string{"a", "b", "c"}, commaList(flags, "exclude-functions"))

	empty := pflag.NewFlagSet("test", pflag.ContinueOnError)
	empty.String("exclude-functions", "", "")
	assert.Nil(t, commaList(empty, "exclude-functions"))
}

func TestBuildOptions_ConfigFileMergesWithFlags(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "codesense.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`exclude_namespaces:
  - tests
  - vendor
skip_parse_errors: true
hide_legend: true
`), 0o644))

	require.NoError(t, graphCmd.Flags().Set("config", configPath))
	require.NoError(t, graphCmd.Flags().Set("exclude-namespaces", "migrations"))
	defer func() {
		_ = graphCmd.Flags().Set("config", "")
		_ = graphCmd.Flags().Set("exclude-namespaces", "")
	}()

	opts, dotOpts, outputFile, err := buildOptions(graphCmd, []string{"./src"})
	require.NoError(t, err)

	assert.Equal(t, []string{"migrations", "tests", "vendor"}, opts.ExcludeNamespaces)
	assert.True(t, opts.SkipParseErrors)
	assert.True(t, dotOpts.HideLegend)
	assert.False(t, dotOpts.NoGrouping)
	assert.Equal(t, "out.png", outputFile)
	assert.Equal(t, []string{"./src"}, opts.Sources)
}

func TestBuildOptions_SubsetValidation(t *testing.T) {
	require.NoError(t, graphCmd.Flags().Set("upstream-depth", "2"))
	defer func() { _ = graphCmd.Flags().Set("upstream-depth", "0") }()

	_, _, _, err := buildOptions(graphCmd, []string{"./src"})
	assert.Error(t, err)
}
