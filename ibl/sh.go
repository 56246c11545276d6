// Package ibl reads image based lighting produced by cmgen's deploy option.
// Only the spherical harmonics irradiance (sh.txt) is consumed; it drives the
// diffuse ambient term and the clear color.
package ibl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Bands is the number of SH bands cmgen writes; 3 bands give 9 coefficients.
const (
	Bands        = 3
	Coefficients = Bands * Bands
)

// DefaultIntensity matches the illuminance scale cmgen environments are authored for.
const DefaultIntensity = 30000

const shFile = "sh.txt"

var (
	ErrMalformed = errors.New("ibl: malformed spherical harmonics")
	tripletRe    = regexp.MustCompile(`\(\s*([-+0-9.eE]+)\s*,\s*([-+0-9.eE]+)\s*,\s*([-+0-9.eE]+)\s*\)`)
)

type Environment struct {
	Dir       string
	Intensity float32
	// SH holds pre-scaled irradiance coefficients in cmgen order:
	// L00, L1-1, L10, L11, L2-2, L2-1, L20, L21, L22.
	SH [Coefficients]mgl32.Vec3
}

// Load reads <dir>/sh.txt.
func Load(dir string) (*Environment, error) {
	f, err := os.Open(filepath.Join(dir, shFile))
	if err != nil {
		return nil, fmt.Errorf("open ibl %s: %w", dir, err)
	}
	defer f.Close()

	sh, err := ParseSH(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Join(dir, shFile), err)
	}
	return &Environment{Dir: dir, Intensity: DefaultIntensity, SH: sh}, nil
}

// ParseSH reads the first nine "(r, g, b)" triplets of a cmgen sh.txt.
func ParseSH(r io.Reader) ([Coefficients]mgl32.Vec3, error) {
	var sh [Coefficients]mgl32.Vec3
	n := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() && n < Coefficients {
		m := tripletRe.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		for c := 0; c < 3; c++ {
			v, err := strconv.ParseFloat(m[c+1], 32)
			if err != nil {
				return sh, fmt.Errorf("%w: coefficient %d: %v", ErrMalformed, n, err)
			}
			sh[n][c] = float32(v)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return sh, err
	}
	if n < Coefficients {
		return sh, fmt.Errorf("%w: found %d of %d coefficients", ErrMalformed, n, Coefficients)
	}
	return sh, nil
}

// Irradiance evaluates the SH in direction n (unit length), clamped to zero.
// It mirrors the shader's irradianceSH.
func (e *Environment) Irradiance(n mgl32.Vec3) mgl32.Vec3 {
	if e == nil {
		return mgl32.Vec3{}
	}
	x, y, z := n[0], n[1], n[2]
	basis := [Coefficients]float32{
		1,
		y,
		z,
		x,
		y * x,
		y * z,
		3*z*z - 1,
		z * x,
		x*x - y*y,
	}
	var out mgl32.Vec3
	for i, b := range basis {
		out = out.Add(e.SH[i].Mul(b))
	}
	for c := range out {
		out[c] = math32.Max(out[c], 0)
	}
	return out
}

// Uniforms packs the coefficients as vec4s for a uniform buffer.
// A nil environment yields zeros, i.e. no ambient light.
func (e *Environment) Uniforms() [Coefficients][4]float32 {
	var out [Coefficients][4]float32
	if e == nil {
		return out
	}
	for i, c := range e.SH {
		out[i] = [4]float32{c[0], c[1], c[2], 0}
	}
	return out
}

func (e *Environment) IntensityOrZero() float32 {
	if e == nil {
		return 0
	}
	return e.Intensity
}
