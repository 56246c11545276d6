package meshpbr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSingleRenderer(t *testing.T) {
	app := NewAppBuilder().Build()

	ensureSingleRenderer(app, string(RendererPBR))
	assert.NotPanics(t, func() { ensureSingleRenderer(app, string(RendererPBR)) })

	res, ok := app.Resource((*RendererTag)(nil))
	require.True(t, ok)
	assert.Equal(t, string(RendererPBR), res.(*RendererTag).Name)

	assert.Panics(t, func() { ensureSingleRenderer(app, "other") })
	assert.Panics(t, func() { ensureSingleRenderer(nil, string(RendererPBR)) })
}
