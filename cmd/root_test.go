package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"normalize", "reconcile", "score", "gazetteer", "runs", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "unit-roster", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestNormalizeCommand_Flags(t *testing.T) {
	for _, name := range []string{"input", "source", "output"} {
		require.NotNil(t, normalizeCmd.Flags().Lookup(name), "normalize should have --%s", name)
	}
}

func TestReconcileCommand_Flags(t *testing.T) {
	for _, name := range []string{"roster", "listing", "output", "xlsx", "csv", "save"} {
		require.NotNil(t, reconcileCmd.Flags().Lookup(name), "reconcile should have --%s", name)
	}
	assert.Equal(t, "false", reconcileCmd.Flags().Lookup("save").DefValue)
}

func TestScoreCommand_Flags(t *testing.T) {
	flag := scoreCmd.Flags().Lookup("min-grade")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestRunsCommand_Flags(t *testing.T) {
	flag := runsCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "20", flag.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestGazetteerCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range gazetteerCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["check"])
}

func TestRootCommand_LogFlags(t *testing.T) {
	for _, name := range []string{"log-level", "log-format"} {
		flag := rootCmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, "root should have --%s", name)
		assert.Equal(t, "", flag.DefValue)
	}
}
