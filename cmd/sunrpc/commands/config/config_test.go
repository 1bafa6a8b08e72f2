package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoot() *cobra.Command {
	root := &cobra.Command{Use: "sunrpc", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String("config", "", "config file")
	root.AddCommand(Cmd)
	return root
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sunrpc", "config.yaml")

	prev := confirmOverwrite
	confirmOverwrite = func(string, bool) (bool, error) { return false, nil }
	t.Cleanup(func() { confirmOverwrite = prev })

	t.Run("Init", func(t *testing.T) {
		out, err := run(t, "config", "init", "--config", path)
		require.NoError(t, err)
		assert.Contains(t, out, path)
		_, err = os.Stat(path)
		require.NoError(t, err)
	})

	t.Run("InitRefusesOverwrite", func(t *testing.T) {
		_, err := run(t, "config", "init", "--config", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("Validate", func(t *testing.T) {
		out, err := run(t, "config", "validate", "--config", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Validation: OK")
		assert.Contains(t, out, "Retransmit every:   600ms")
		assert.Contains(t, out, "Give up after:      36.6s")
	})

	t.Run("ShowJSON", func(t *testing.T) {
		out, err := run(t, "config", "show", "--config", path, "--format", "json")
		require.NoError(t, err)

		var cfg map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &cfg))
		assert.Contains(t, cfg, "Client")
	})

	t.Run("ShowYAML", func(t *testing.T) {
		out, err := run(t, "config", "show", "--config", path, "--format", "yaml")
		require.NoError(t, err)
		assert.Contains(t, out, "machine_name: barrelfish")
		assert.Contains(t, out, "max_datagram_size: 8KiB")
	})

	t.Run("ValidateMissingFile", func(t *testing.T) {
		_, err := run(t, "config", "validate", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration file not found")
	})
}

func TestSchema(t *testing.T) {
	data, err := generateSchema()
	require.NoError(t, err)

	var schema struct {
		Title      string `json:"title"`
		Properties map[string]struct {
			Properties map[string]struct {
				Type string `json:"type"`
			} `json:"properties"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(data, &schema))

	assert.Equal(t, "sunrpc Configuration", schema.Title)
	require.Contains(t, schema.Properties, "client")
	client := schema.Properties["client"].Properties
	assert.Equal(t, "string", client["server"].Type)
	assert.Equal(t, "string", client["tick_period"].Type)
	assert.Equal(t, "string", client["max_datagram_size"].Type)
	assert.Equal(t, "integer", client["retransmit_after"].Type)
}
