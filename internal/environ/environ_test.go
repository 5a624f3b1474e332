package environ_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/cienv/internal/environ"
)

func TestOS_SetAndLookup(t *testing.T) {
	t.Setenv("CIENV_ENVIRON_TEST", "before")

	var env environ.Environment = environ.OS{}
	require.NoError(t, env.Set("CIENV_ENVIRON_TEST", "after"))

	got, ok := env.Lookup("CIENV_ENVIRON_TEST")
	assert.True(t, ok)
	assert.Equal(t, "after", got)
	assert.Equal(t, "after", os.Getenv("CIENV_ENVIRON_TEST"))
}

func TestMap(t *testing.T) {
	t.Parallel()

	seed := map[string]string{"B": "2"}
	env := environ.NewMap(seed)
	require.NoError(t, env.Set("A", "1"))
	require.NoError(t, env.Set("EMPTY", ""))
	seed["C"] = "3"

	v, ok := env.Lookup("EMPTY")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = env.Lookup("C")
	assert.False(t, ok)

	assert.Equal(t, []string{"A", "B", "EMPTY"}, env.Names())
	assert.Equal(t, []string{"A=1", "B=2", "EMPTY="}, env.Environ())
}

func TestMap_InvalidNames(t *testing.T) {
	t.Parallel()

	env := environ.NewMap(nil)
	for _, name := range []string{"", "A=B", "NUL\x00"} {
		assert.Error(t, env.Set(name, "x"), "name %q", name)
	}
	assert.Empty(t, env.Names())
}
