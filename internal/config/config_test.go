package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesCommentedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgstore.hujson")
	contents := `{
  // defaults used when no flags are given
  "max_files": 25,
  "thumb_res": [64, 64],
  "small_res": [256, 256], // trailing comma tolerated
}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	defaults, err := Load(path)
	require.NoError(t, err)
	assert.EqualValues(t, 25, defaults.MaxFiles)
	assert.Equal(t, [2]uint16{64, 64}, defaults.ThumbRes)
	assert.Equal(t, [2]uint16{256, 256}, defaults.SmallRes)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.hujson"))
	assert.Error(t, err)
}

func TestLoadRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.hujson")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
