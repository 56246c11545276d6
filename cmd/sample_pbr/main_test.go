package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedStart struct {
	called    bool
	filenames []string
	config    Config
	pbrConfig PbrConfig
}

func (r *recordedStart) start(filenames []string, config Config, pbrConfig PbrConfig) error {
	r.called = true
	r.filenames = filenames
	r.config = config
	r.pbrConfig = pbrConfig
	return nil
}

func writeMesh(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0o644))
	return path
}

func runArgs(args ...string) (int, string, string, *recordedStart) {
	var stdout, stderr bytes.Buffer
	rec := &recordedStart{}
	code := run(append([]string{"/usr/local/bin/sample_pbr"}, args...), &stdout, &stderr, rec.start)
	return code, stdout.String(), stderr.String(), rec
}

func TestRun_HelpExitsZero(t *testing.T) {
	for _, flag := range []string{"-h", "--help"} {
		code, out, _, rec := runArgs(flag)
		assert.Equal(t, 0, code, flag)
		assert.Contains(t, out, "sample_pbr is an example of loading PBR assets")
		assert.Contains(t, out, "sample_pbr [options] <OBJ/FBX/COLLADA>")
		assert.NotContains(t, out, "SAMPLE_PBR")
		assert.False(t, rec.called)
	}
}

func TestRun_NoMeshPrintsUsageAndFails(t *testing.T) {
	code, out, _, rec := runArgs("-v")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Usage:")
	assert.False(t, rec.called)
}

func TestRun_MissingFileFails(t *testing.T) {
	mesh := writeMesh(t, "tri.obj")
	missing := filepath.Join(t.TempDir(), "nope.obj")

	code, _, errOut, rec := runArgs(mesh, missing)
	assert.Equal(t, 1, code)
	assert.Equal(t, "file "+missing+" not found!\n", errOut)
	assert.False(t, rec.called)
}

func TestRun_UnknownOptionPrintsUsage(t *testing.T) {
	code, out, _, rec := runArgs("--bogus", writeMesh(t, "tri.obj"))
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Usage:")
	assert.False(t, rec.called)
}

func TestRun_Defaults(t *testing.T) {
	mesh := writeMesh(t, "tri.obj")
	code, _, _, rec := runArgs(mesh)
	require.Equal(t, 0, code)
	require.True(t, rec.called)

	assert.Equal(t, []string{mesh}, rec.filenames)
	assert.Equal(t, Config{
		Title:  "PBR",
		Scale:  1,
		Width:  defaultWidth,
		Height: defaultHeight,
	}, rec.config)
	assert.Equal(t, PbrConfig{}, rec.pbrConfig)
}

func TestRun_ShortAndLongFlags(t *testing.T) {
	mesh := writeMesh(t, "tri.obj")

	code, _, _, short := runArgs("-i", "/ibl", "-v", "-s", "2.5", "-p", "mr.png", "-c", "base.png", mesh)
	require.Equal(t, 0, code)
	code, _, _, long := runArgs("--ibl=/ibl", "--split-view", "--scale=2.5", "--packed-map=mr.png", "--basecolor-map=base.png", mesh)
	require.Equal(t, 0, code)

	for _, rec := range []*recordedStart{short, long} {
		require.True(t, rec.called)
		assert.Equal(t, "/ibl", rec.config.IBLDirectory)
		assert.True(t, rec.config.SplitView)
		assert.Equal(t, float32(2.5), rec.config.Scale)
		assert.Equal(t, PbrConfig{MetallicRoughnessMap: "mr.png", BaseColorMap: "base.png"}, rec.pbrConfig)
	}
}

func TestRun_FlagsAfterMeshPaths(t *testing.T) {
	a := writeMesh(t, "a.obj")
	b := writeMesh(t, "b.dae")

	code, _, _, rec := runArgs(a, "-s", "3", b, "--debug", "--width", "640")
	require.Equal(t, 0, code)
	require.True(t, rec.called)
	assert.Equal(t, []string{a, b}, rec.filenames)
	assert.Equal(t, float32(3), rec.config.Scale)
	assert.True(t, rec.config.Debug)
	assert.Equal(t, 640, rec.config.Width)
	assert.Equal(t, defaultHeight, rec.config.Height)
}

func TestRun_StartErrorFails(t *testing.T) {
	var stdout, stderr bytes.Buffer
	failing := func([]string, Config, PbrConfig) error { return errors.New("no adapter") }
	code := run([]string{"sample_pbr", writeMesh(t, "tri.obj")}, &stdout, &stderr, failing)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "no adapter")
}

func TestParseScale(t *testing.T) {
	tests := []struct {
		in   string
		want float32
	}{
		{"2", 2},
		{"0.5", 0.5},
		{"-1.5", -1.5},
		{".25", 0.25},
		{"1e2", 100},
		{"3x", 3},
		{" 4", 4},
		{"abc", 1},
		{"", 1},
		{"1e60", 1},
		{"1e-50", 1},
		{"0.0", 0},
		{"0x10", 16},
		{"0X1.8p1", 3},
		{"-0x.8", -0.5},
		{"0x1p200", 1},
		{"0xg", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseScale(tt.in), tt.in)
	}
}

func TestReorderArgs(t *testing.T) {
	got := reorderArgs([]string{"app", "a.obj", "-s", "2", "b.obj", "--ibl=x", "-v", "--", "-odd.obj"})
	assert.Equal(t, []string{"app", "-s", "2", "--ibl=x", "-v", "--", "a.obj", "b.obj", "-odd.obj"}, got)

	assert.Equal(t, []string{"app", "-h"}, reorderArgs([]string{"app", "-h"}))

	got = reorderArgs([]string{"app", "m.obj", "-vs", "2", "-s3", "-vi/ibl"})
	assert.Equal(t, []string{"app", "-v", "-s", "2", "-s", "3", "-v", "-i", "/ibl", "--", "m.obj"}, got)
}

func TestSplitShortFlags(t *testing.T) {
	tests := []struct {
		in         string
		want       []string
		needsValue bool
	}{
		{"-v", []string{"-v"}, false},
		{"-s", []string{"-s"}, true},
		{"-vh", []string{"-v", "-h"}, false},
		{"-vs", []string{"-v", "-s"}, true},
		{"-s2.5", []string{"-s", "2.5"}, false},
		{"-vsv", []string{"-v", "-s", "v"}, false},
		{"-s-i", []string{"-s", "-i"}, false},
		{"-width", []string{"-width"}, false},
		{"-debug", []string{"-debug"}, false},
		{"--scale", []string{"--scale"}, true},
	}
	for _, tt := range tests {
		got, needsValue := splitShortFlags(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.needsValue, needsValue, tt.in)
	}
}

func TestRun_ClusteredShortFlags(t *testing.T) {
	mesh := writeMesh(t, "tri.obj")

	code, _, _, rec := runArgs("-vs", "2", mesh)
	require.Equal(t, 0, code)
	require.True(t, rec.called)
	assert.True(t, rec.config.SplitView)
	assert.Equal(t, float32(2), rec.config.Scale)
	assert.Equal(t, []string{mesh}, rec.filenames)

	code, _, _, rec = runArgs(mesh, "-s0.5")
	require.Equal(t, 0, code)
	assert.Equal(t, float32(0.5), rec.config.Scale)
	assert.False(t, rec.config.SplitView)
}
