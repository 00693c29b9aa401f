package whisper_test

import (
	"path/filepath"
	"testing"

	assert "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nupi-ai/whisper-runtime/internal/stubengine"
	"github.com/nupi-ai/whisper-runtime/whisper"
)

func TestOpenModel_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.bin")

	model, err := whisper.OpenModel(missing, whisper.WithEngine(stubengine.New()))
	assert.Nil(t, model)
	require.ErrorIs(t, err, whisper.ErrModelLoadFailed)
}

func TestModel_Lifecycle(t *testing.T) {
	model, closeModel := helperModel(t)
	defer closeModel()

	assert.False(t, model.IsClosed())
	assert.True(t, model.IsMultilingual())
	assert.Contains(t, model.Languages(), "en")
	assert.Contains(t, model.Languages(), "pl")
}

func TestModel_CloseIdempotent(t *testing.T) {
	model, _ := helperModel(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, model.Close())
		assert.True(t, model.IsClosed())
	}
}

func TestModel_PostCloseAccessors(t *testing.T) {
	model, _ := helperModel(t)
	require.NoError(t, model.Close())

	assert.False(t, model.IsMultilingual())
	assert.Nil(t, model.Languages())
	assert.Contains(t, model.String(), "closed=true")
}

func TestModel_NotMultilingual(t *testing.T) {
	model, closeModel := helperMonoModel(t)
	defer closeModel()

	assert.False(t, model.IsMultilingual())
	assert.Equal(t, []string{"en"}, model.Languages())
}
