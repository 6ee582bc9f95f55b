package docstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMacros(t *testing.T) {
	path := filepath.Join(t.TempDir(), "macros.txt")
	require.NoError(t, os.WriteFile(path, []byte(`
# comment lines are ignored
noun = """@pos="noun" """
subject = """node[%noun% and @rel="su"]"""
`), 0o644))

	m, err := LoadMacros(path)
	require.NoError(t, err)
	assert.Equal(t, `@pos="noun"`, m["noun"])

	q, err := m.Expand(`//%subject%`)
	require.NoError(t, err)
	assert.Equal(t, `//node[@pos="noun" and @rel="su"]`, q)

	q, err = m.Expand(`//node[%unknown%]`)
	require.NoError(t, err)
	assert.Equal(t, `//node[%unknown%]`, q)
}

func TestMacros_Cycle(t *testing.T) {
	m := ParseMacros(`a = """%b%"""
b = """x or %a%"""`)
	_, err := m.Expand("%a%")
	assert.Error(t, err)
}
