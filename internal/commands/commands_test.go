package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormspec/queryspec/internal/querytest"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// isolate keeps config loading away from files in the working directory
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("QSPEC_LOG_LEVEL", "error")
	t.Setenv("QSPEC_PROVIDERS_ENABLED", "sqlite")
	SetConfigDir("")
}

func TestScenariosCmd(t *testing.T) {
	out, err := execute(t, NewScenariosCmd())
	require.NoError(t, err)

	total := 0
	for _, s := range querytest.Catalog() {
		total += len(s.Scenarios)
	}
	assert.Contains(t, out, "SUITE")
	assert.Contains(t, out, "Changes_in_derived_related_entities_are_detected")
	assert.Contains(t, out, fmt.Sprintf("%d scenarios in %d suites", total, len(querytest.Catalog())))
}

func TestScenariosCmd_Filter(t *testing.T) {
	out, err := execute(t, NewScenariosCmd(), "--filter", "^Spatial/AsText$")
	require.NoError(t, err)
	assert.Contains(t, out, "AsText")
	assert.Contains(t, out, "1 scenarios in 1 suites")

	_, err = execute(t, NewScenariosCmd(), "--filter", "^Nothing/")
	require.Error(t, err)

	_, err = execute(t, NewScenariosCmd(), "--filter", "(")
	require.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, NewVersionCmd("1.2.3"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "queryspec 1.2.3 "))
}

func TestVerifyCmd(t *testing.T) {
	isolate(t)
	textfile := filepath.Join(t.TempDir(), "queryspec.prom")

	out, err := execute(t, NewVerifyCmd(),
		"--filter", "^Inheritance/Can_query",
		"--format", "yaml",
		"--metrics-textfile", textfile)
	require.NoError(t, err, out)
	assert.Contains(t, out, "provider: sqlite")
	assert.Contains(t, out, "Inheritance/Can_query_leaf_type")
	assert.NotContains(t, out, "passed: false")

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "queryspec_scenario_passed")
}

func TestVerifyCmd_UnknownProvider(t *testing.T) {
	isolate(t)
	_, err := execute(t, NewVerifyCmd(), "--provider", "db2", "--filter", "^Spatial/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db2")
}

func TestSeedCmd(t *testing.T) {
	isolate(t)
	out, err := execute(t, NewSeedCmd(), "--filter", "^Owned/")
	require.NoError(t, err)
	assert.Contains(t, out, "1 fixtures ready on sqlite")
}
