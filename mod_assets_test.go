package meshpbr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/meshpbr/material"
)

func TestAssetServer_Meshes(t *testing.T) {
	server := NewAssetServer()
	verts := []PbrVertex{{Position: [3]float32{0, 0, 0}}, {Position: [3]float32{1, 0, 0}}, {Position: [3]float32{0, 1, 0}}}

	a := server.CreateMesh("a", verts, []uint32{0, 1, 2}, false)
	b := server.CreateMesh("b", verts, []uint32{0, 2, 1}, true)
	assert.NotEqual(t, a.AssetId(), b.AssetId())
	assert.True(t, server.HasAsset(a.AssetId()))

	asset := server.meshes[b.AssetId()]
	require.NotNil(t, asset)
	assert.Equal(t, "b", asset.name)
	assert.True(t, asset.hasUV)
	assert.Equal(t, []uint32{0, 2, 1}, asset.indices)

	server.DestroyMesh(a)
	assert.False(t, server.HasAsset(a.AssetId()))
	assert.True(t, server.HasAsset(b.AssetId()))
}

func TestAssetServer_Textures(t *testing.T) {
	server := NewAssetServer()

	assert.Nil(t, server.CreateTexture("empty", nil, TextureFormatRGBA8Unorm))

	tex := server.CreateTextureFromImage("solid", SolidImage(16, 4, color.RGBA{R: 10, G: 20, B: 30, A: 255}), true)
	require.NotNil(t, tex)
	assert.Equal(t, uint32(16), tex.Width)
	assert.Equal(t, uint32(4), tex.Height)
	assert.Equal(t, 5, tex.Levels)
	assert.Equal(t, TextureFormatRGBA8UnormSrgb, tex.Format)
	assert.True(t, server.HasAsset(tex.AssetId()))

	server.DestroyTexture(tex)
	server.DestroyTexture(nil)
	assert.False(t, server.HasAsset(tex.AssetId()))
}

func TestMipLevelCount(t *testing.T) {
	assert.Equal(t, 1, MipLevelCount(1, 1))
	assert.Equal(t, 2, MipLevelCount(2, 1))
	assert.Equal(t, 9, MipLevelCount(256, 256))
	assert.Equal(t, 10, MipLevelCount(300, 512))
	assert.Equal(t, 11, MipLevelCount(1024, 3))
}

func TestBuildMipChain(t *testing.T) {
	levels := BuildMipChain(SolidImage(8, 2, color.RGBA{R: 200, G: 100, B: 50, A: 255}))
	require.Len(t, levels, 4)

	sizes := make([][2]uint32, len(levels))
	for i, l := range levels {
		sizes[i] = [2]uint32{l.Width, l.Height}
		assert.Len(t, l.Texels, int(l.Width*l.Height*4))
	}
	assert.Equal(t, [][2]uint32{{8, 2}, {4, 1}, {2, 1}, {1, 1}}, sizes)

	// a uniform image stays uniform at every level
	last := levels[3].Texels
	assert.InDelta(t, 200, last[0], 1)
	assert.InDelta(t, 100, last[1], 1)
	assert.InDelta(t, 50, last[2], 1)
}

func TestDecodeImage_ForcesOpaque(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.NRGBA{R: 255, A: 0})
	src.Set(1, 1, color.NRGBA{G: 255, A: 128})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	img, err := DecodeImage(&buf)
	require.NoError(t, err)
	for i := 3; i < len(img.Pix); i += 4 {
		assert.Equal(t, uint8(0xff), img.Pix[i])
	}

	_, err = DecodeImage(bytes.NewReader([]byte("definitely not an image")))
	assert.Error(t, err)
}

func TestLoadTextureFile(t *testing.T) {
	server := NewAssetServer()
	dir := t.TempDir()

	_, err := server.LoadTextureFile(filepath.Join(dir, "missing.png"), true)
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o644))
	_, err = server.LoadTextureFile(bad, true)
	assert.ErrorContains(t, err, "decode")

	good := filepath.Join(dir, "mr.png")
	f, err := os.Create(good)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, SolidImage(4, 4, color.RGBA{R: 255, G: 128, A: 255})))
	require.NoError(t, f.Close())

	tex, err := server.LoadTextureFile(good, false)
	require.NoError(t, err)
	assert.Equal(t, TextureFormatRGBA8Unorm, tex.Format)
	assert.Equal(t, "mr.png", server.textures[tex.AssetId()].name)
}

func buildTestPackage(t *testing.T, params ...string) *material.Package {
	t.Helper()
	b := material.NewBuilder().
		Name("Test").
		Set(material.BaseColor).
		Material("fn material(inputs: ptr<function, MaterialInputs>) {\n    prepareMaterial(inputs);\n}\n")
	if len(params) > 0 {
		b.Require(material.UV0)
	}
	for _, p := range params {
		b.Parameter(material.Sampler2D, p)
	}
	pkg, err := b.Build()
	require.NoError(t, err)
	return pkg
}

func TestMaterialInstance_SetParameter(t *testing.T) {
	server := NewAssetServer()
	mat := server.CreateMaterial(buildTestPackage(t, "albedo", "packed"))
	assert.Equal(t, "Test", mat.Name())
	assert.True(t, server.HasAsset(mat.AssetId()))

	mi := mat.CreateInstance()
	assert.Same(t, mat, mi.Material())
	assert.True(t, server.HasAsset(mi.AssetId()))
	assert.False(t, mi.complete())

	tex := server.CreateTextureFromImage("t", SolidImage(2, 2, color.RGBA{A: 255}), true)
	sampler := NewTextureSampler(MinFilterLinearMipmapLinear, MagFilterLinear, WrapModeRepeat)
	sampler.SetAnisotropy(8)

	assert.ErrorIs(t, mi.SetParameter("missing", tex, sampler), ErrUnknownParameter)
	assert.ErrorIs(t, mi.SetParameter("albedo", nil, sampler), ErrNilTexture)
	assert.Equal(t, uint(0), mi.version)

	require.NoError(t, mi.SetParameter("albedo", tex, sampler))
	require.NoError(t, mi.SetParameter("packed", tex, sampler))
	assert.Equal(t, uint(2), mi.version)
	assert.True(t, mi.complete())

	got, gotSampler, ok := mi.Parameter("albedo")
	require.True(t, ok)
	assert.Same(t, tex, got)
	assert.Equal(t, float32(8), gotSampler.Anisotropy)
	_, _, ok = mi.Parameter("missing")
	assert.False(t, ok)

	server.DestroyMaterialInstance(mi)
	assert.False(t, server.HasAsset(mi.AssetId()))
	server.DestroyMaterial(mat)
	assert.ErrorIs(t, mi.SetParameter("albedo", tex, sampler), ErrDestroyed)
}

func TestMaterialInstance_NoParametersIsComplete(t *testing.T) {
	server := NewAssetServer()
	mi := server.CreateMaterial(buildTestPackage(t)).CreateInstance()
	assert.True(t, mi.complete())
}
