package meshpbr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowDefaults(t *testing.T) {
	w, h, title := windowDefaults(0, -1, "")
	assert.Equal(t, defaultWindowWidth, w)
	assert.Equal(t, defaultWindowHeight, h)
	assert.Equal(t, defaultWindowTitle, title)

	w, h, title = windowDefaults(640, 480, "PBR")
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
	assert.Equal(t, "PBR", title)
}

func TestWindowState_AspectRatio(t *testing.T) {
	assert.Equal(t, float32(1), (&WindowState{}).AspectRatio())
	assert.Equal(t, float32(2), (&WindowState{FramebufferWidth: 200, FramebufferHeight: 100}).AspectRatio())
}
