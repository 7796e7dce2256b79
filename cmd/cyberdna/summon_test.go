package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cyberdna/pkg/registry"
)

func TestSummonShell(t *testing.T) {
	regPath := filepath.Join(t.TempDir(), "registry.json")

	input := `help
list
add Fetch records
F1
io, network
fetch(url)
retry()
.
summon F1
lock F1
edit F1
summon missing
bogus
exit
`
	code, stdout, stderr := execute(t, input, "summon", "-registry", regPath)
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stdout, "(registry is empty)")
	assert.Contains(t, stdout, "Added F1")
	assert.Contains(t, stdout, "Summoning F1: Fetch records")
	assert.Contains(t, stdout, "Traits: io, network")
	assert.Contains(t, stdout, "fetch(url)\nretry()")
	assert.Contains(t, stdout, "F1 is now read-only")
	assert.Contains(t, stdout, "locked and cannot be edited")
	assert.Contains(t, stdout, "Function not found.")
	assert.Contains(t, stdout, "Unknown command: bogus")
	assert.Contains(t, stdout, "Invocation complete.")

	reg, err := registry.Open(regPath, nil)
	require.NoError(t, err)
	fn, err := reg.Summon("F1")
	require.NoError(t, err)
	assert.False(t, fn.Editable)
	assert.Equal(t, []string{"io", "network"}, fn.Traits)
}

func TestSummonShellEdit(t *testing.T) {
	regPath := filepath.Join(t.TempDir(), "registry.json")
	reg, err := registry.Open(regPath, nil)
	require.NoError(t, err)
	_, err = reg.Add("G7", "Greeter", "hello()", nil)
	require.NoError(t, err)

	code, stdout, stderr := execute(t, "edit G7\ngoodbye()\n.\n", "summon", "-registry", regPath)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Function updated.")

	reg, err = registry.Open(regPath, nil)
	require.NoError(t, err)
	fn, err := reg.Summon("G7")
	require.NoError(t, err)
	assert.Equal(t, "goodbye()", fn.Code)
}

func TestSplitTraits(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitTraits(" a, ,b ,"))
	assert.Nil(t, splitTraits(""))
}
