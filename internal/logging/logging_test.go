package logging

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", &buf)
	log.Info().Msg("hidden")
	log.Warn().Str("k", "v").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"k":"v"`)
	assert.Contains(t, buf.String(), `"message":"shown"`)
}

func TestNew_UnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New("chatty", &buf)
	log.Debug().Msg("debug")
	log.Info().Msg("info")
	assert.NotContains(t, buf.String(), `"debug"`)
	assert.Contains(t, buf.String(), `"message":"info"`)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revise.log")
	log, closer, err := OpenFile("debug", path)
	require.NoError(t, err)
	log.Debug().Msg("written")
	require.NoError(t, closer.Close())

	_, _, err = OpenFile("debug", filepath.Join(t.TempDir(), "missing", "x.log"))
	assert.Error(t, err)
}
