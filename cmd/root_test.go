package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsRegistered(t *testing.T) {
	for _, name := range []string{"cleanup", "config", "verbose"} {
		f := rootCmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
	}
	assert.Equal(t, "false", rootCmd.Flags().Lookup("cleanup").DefValue)
}

func TestRootHasNoSubcommands(t *testing.T) {
	// The CLI surface is a single command; mode switching happens via --cleanup.
	assert.Empty(t, rootCmd.Commands())
}
