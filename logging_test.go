package meshpbr

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLogger_Streams(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLoggerWithWriters("sample_pbr", false, &out, &errOut)

	l.Debugf("hidden %d", 1)
	l.Infof("Loaded %d renderables", 2)
	l.Warnf("The texture %s does not exist", "a.png")
	l.Errorf("boom")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[sample_pbr] INFO: Loaded 2 renderables")
	assert.Contains(t, errOut.String(), "[sample_pbr] WARN: The texture a.png does not exist")
	assert.Contains(t, errOut.String(), "[sample_pbr] ERROR: boom")

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("shown")
	assert.Contains(t, out.String(), "DEBUG: shown")
}

func TestDefaultLogger_NoPrefix(t *testing.T) {
	var out bytes.Buffer
	NewLoggerWithWriters("", false, &out, &out).Infof("plain")
	assert.Contains(t, out.String(), " INFO: plain")
	assert.NotContains(t, out.String(), "[")
}

func TestAppLogger(t *testing.T) {
	var nilApp *App
	assert.NotNil(t, nilApp.Logger())

	app := NewAppBuilder().Build()
	assert.False(t, app.Logger().DebugEnabled())

	app = NewAppBuilder().UseModule(LoggingModule{Prefix: "x", Debug: true}).Build()
	_, ok := app.Logger().(*DefaultLogger)
	assert.True(t, ok)
	assert.True(t, app.Logger().DebugEnabled())
}
