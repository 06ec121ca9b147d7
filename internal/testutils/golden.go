// TiCS: disabled // Test helpers.

package testutils

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var update = flag.Bool("update", false, "update golden files")

// GoldenPath returns the golden path for the current test.
func GoldenPath(t *testing.T) string {
	t.Helper()

	path := filepath.Join("testdata", "golden")
	path = filepath.Join(path, normalizeGoldenName(t, t.Name()))

	return path
}

// LoadWithUpdateFromGoldenYAML loads the element from a plaintext golden YAML
// file. It will update the file if the update flag is used prior to
// deserializing it.
func LoadWithUpdateFromGoldenYAML[E any](t *testing.T, got E) E {
	t.Helper()

	goldenPath := GoldenPath(t)

	if *update {
		t.Logf("updating golden file %s", goldenPath)
		data, err := yaml.Marshal(got)
		require.NoError(t, err, "Cannot marshal object to YAML")
		err = os.MkdirAll(filepath.Dir(goldenPath), 0750)
		require.NoError(t, err, "Cannot create directory for updating golden files")
		err = os.WriteFile(goldenPath, data, 0600)
		require.NoError(t, err, "Cannot write golden file")
	}

	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "Cannot load golden file")

	var want E
	err = yaml.Unmarshal(data, &want)
	require.NoError(t, err, "Cannot unmarshal golden file")

	return want
}

// normalizeGoldenName returns the name of the golden file with illegal Windows
// characters replaced or removed.
func normalizeGoldenName(t *testing.T, name string) string {
	t.Helper()

	name = strings.ReplaceAll(name, `\`, "_")
	name = strings.ReplaceAll(name, ":", "")
	name = strings.ToLower(name)
	return name
}
