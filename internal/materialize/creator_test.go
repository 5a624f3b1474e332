package materialize_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/cienv/internal/materialize"
	"github.com/systmms/cienv/internal/secure"
)

// dirCreator writes numbered files into a fixed directory
type dirCreator struct {
	dir   string
	count int
}

func (c *dirCreator) Create() (materialize.FileWriter, error) {
	c.count++
	return os.Create(filepath.Join(c.dir, "value-"+string(rune('0'+c.count))))
}

func TestMaterialize_CustomCreator(t *testing.T) {
	t.Parallel()

	creator := &dirCreator{dir: t.TempDir()}
	buf, err := secure.NewSecureBufferFromString("line one\n")
	require.NoError(t, err)

	path, err := materialize.NewWithCreator(creator).Materialize(buf)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(creator.dir, "value-1"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line one\n", string(data))
}
