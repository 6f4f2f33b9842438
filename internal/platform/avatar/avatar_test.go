package avatar

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitials(t *testing.T) {
	assert.Equal(t, "AL", Initials("ada", "lovelace"))
	assert.Equal(t, "É?", Initials(" élodie", ""))
	assert.Equal(t, "??", Initials("", "  "))
}

func TestColorFor(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	assert.Equal(t, "#3498DB", r.ColorFor("3498db", "seed"))
	a := r.ColorFor("", "user-1")
	assert.Equal(t, a, r.ColorFor("#123456", "user-1"))
	assert.Contains(t, defaultPalette, a)
}

func TestRenderPNG(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	raw, err := r.Render("Grace", "Hopper", "#2980B9")
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, Size, img.Bounds().Dx())
	assert.Equal(t, Size, img.Bounds().Dy())
}
