package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	err := cmd.Execute()
	require.NoError(t, err)
	require.NotEmpty(t, buf.String())
}

func TestDoctorWithExampleConfig(t *testing.T) {
	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	configPath, err := filepath.Abs(filepath.Join("..", "..", "configs", "config.example.yaml"))
	require.NoError(t, err)
	require.FileExists(t, configPath)

	cmd.SetArgs([]string{"doctor", "--config", configPath})

	err = cmd.Execute()
	require.NoError(t, err)
	require.Contains(t, buf.String(), "Config OK")
}

func TestSelectTask(t *testing.T) {
	require.True(t, selectTask("spec-1", nil, nil))
	require.True(t, selectTask("spec-1", []string{"spec-1"}, nil))
	require.False(t, selectTask("spec-2", []string{"spec-1"}, nil))
	require.False(t, selectTask("spec-1", nil, []string{"spec-1"}))
	require.False(t, selectTask("spec-1", []string{"spec-1"}, []string{"spec-1"}), "skip wins over include")
}
