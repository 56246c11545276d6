// Package material turns a material description and a user shader body into a
// complete WGSL program for the PBR renderer.
//
// A material body is a WGSL function
//
//	fn material(inputs: ptr<function, MaterialInputs>) {
//	    prepareMaterial(inputs);
//	    ...
//	}
//
// that fills MaterialInputs. Sampler parameters declared on the Builder are
// exposed to the body as materialParams_<name> and materialParams_<name>Sampler.
package material

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var (
	ErrInvalidName      = errors.New("material: invalid name")
	ErrInvalidBody      = errors.New("material: invalid material body")
	ErrInvalidParameter = errors.New("material: invalid parameter")
	ErrMissingAttribute = errors.New("material: missing required vertex attribute")
	ErrUndeclared       = errors.New("material: property written but not declared")
)

// ParameterGroup is the bind group holding sampler parameters.
const ParameterGroup = 2

type Property int

const (
	BaseColor Property = iota
	Metallic
	Roughness
	Reflectance
	AmbientOcclusion
	Emissive
)

// field is the MaterialInputs member a property maps to.
func (p Property) field() string {
	switch p {
	case BaseColor:
		return "baseColor"
	case Metallic:
		return "metallic"
	case Roughness:
		return "roughness"
	case Reflectance:
		return "reflectance"
	case AmbientOcclusion:
		return "ambientOcclusion"
	case Emissive:
		return "emissive"
	}
	return ""
}

func (p Property) String() string {
	if f := p.field(); f != "" {
		return f
	}
	return fmt.Sprintf("Property(%d)", int(p))
}

var allProperties = []Property{BaseColor, Metallic, Roughness, Reflectance, AmbientOcclusion, Emissive}

type Shading int

const (
	Lit Shading = iota
	Unlit
)

func (s Shading) String() string {
	if s == Unlit {
		return "unlit"
	}
	return "lit"
}

type VertexAttribute int

const (
	Position VertexAttribute = iota
	Normal
	UV0
	Tangents
)

func (a VertexAttribute) String() string {
	switch a {
	case Position:
		return "position"
	case Normal:
		return "normal"
	case UV0:
		return "uv0"
	case Tangents:
		return "tangents"
	}
	return fmt.Sprintf("VertexAttribute(%d)", int(a))
}

type SamplerType int

const (
	Sampler2D SamplerType = iota
)

// Parameter is a sampler parameter with its assigned bindings in ParameterGroup.
type Parameter struct {
	Name           string
	Type           SamplerType
	TextureBinding uint32
	SamplerBinding uint32
}

func (p Parameter) TextureVar() string { return "materialParams_" + p.Name }
func (p Parameter) SamplerVar() string { return "materialParams_" + p.Name + "Sampler" }

// Package is a built material: the WGSL program plus what the renderer needs to bind it.
type Package struct {
	Name               string
	Shading            Shading
	Properties         []Property
	RequiredAttributes []VertexAttribute
	Parameters         []Parameter
	Source             string
}

func (p *Package) Parameter(name string) (Parameter, bool) {
	for _, param := range p.Parameters {
		if param.Name == name {
			return param, true
		}
	}
	return Parameter{}, false
}

func (p *Package) Requires(attr VertexAttribute) bool {
	return slices.Contains(p.RequiredAttributes, attr)
}

type parameterDecl struct {
	name string
	typ  SamplerType
}

// Builder collects a material description. Methods chain; errors surface from Build.
type Builder struct {
	name       string
	body       string
	shading    Shading
	properties []Property
	required   []VertexAttribute
	parameters []parameterDecl
}

func NewBuilder() *Builder {
	return &Builder{
		shading:  Lit,
		required: []VertexAttribute{Position, Normal},
	}
}

func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

func (b *Builder) Set(p Property) *Builder {
	if !slices.Contains(b.properties, p) {
		b.properties = append(b.properties, p)
	}
	return b
}

func (b *Builder) Material(body string) *Builder {
	b.body = body
	return b
}

func (b *Builder) Shading(s Shading) *Builder {
	b.shading = s
	return b
}

func (b *Builder) Require(attr VertexAttribute) *Builder {
	if !slices.Contains(b.required, attr) {
		b.required = append(b.required, attr)
	}
	return b
}

func (b *Builder) Parameter(typ SamplerType, name string) *Builder {
	b.parameters = append(b.parameters, parameterDecl{name: name, typ: typ})
	return b
}

var (
	identifierRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
	materialFnRe = regexp.MustCompile(`fn\s+material\s*\(`)
	prepareRe    = regexp.MustCompile(`prepareMaterial\s*\(`)
)

func (b *Builder) Build() (*Package, error) {
	if strings.TrimSpace(b.name) == "" {
		return nil, ErrInvalidName
	}
	if !materialFnRe.MatchString(b.body) {
		return nil, fmt.Errorf("%w: %q has no material function", ErrInvalidBody, b.name)
	}
	if !prepareRe.MatchString(b.body) {
		return nil, fmt.Errorf("%w: %q never calls prepareMaterial", ErrInvalidBody, b.name)
	}
	for _, p := range allProperties {
		if slices.Contains(b.properties, p) {
			continue
		}
		if writesField(b.body, p.field()) {
			return nil, fmt.Errorf("%w: %s in %q", ErrUndeclared, p, b.name)
		}
	}

	params := make([]Parameter, 0, len(b.parameters))
	for i, decl := range b.parameters {
		if !identifierRe.MatchString(decl.name) {
			return nil, fmt.Errorf("%w: %q is not an identifier", ErrInvalidParameter, decl.name)
		}
		if slices.ContainsFunc(params, func(p Parameter) bool { return p.Name == decl.name }) {
			return nil, fmt.Errorf("%w: %q declared twice", ErrInvalidParameter, decl.name)
		}
		if decl.typ == Sampler2D && !slices.Contains(b.required, UV0) {
			return nil, fmt.Errorf("%w: sampler %q needs %s", ErrMissingAttribute, decl.name, UV0)
		}
		params = append(params, Parameter{
			Name:           decl.name,
			Type:           decl.typ,
			TextureBinding: uint32(2 * i),
			SamplerBinding: uint32(2*i + 1),
		})
	}

	pkg := &Package{
		Name:               b.name,
		Shading:            b.shading,
		Properties:         slices.Clone(b.properties),
		RequiredAttributes: slices.Clone(b.required),
		Parameters:         params,
	}
	src, err := generate(pkg, b.body)
	if err != nil {
		return nil, fmt.Errorf("generate %q: %w", b.name, err)
	}
	pkg.Source = src
	return pkg, nil
}

// writesField reports an assignment to (*inputs).<field> or inputs.<field> in the body.
func writesField(body, field string) bool {
	re := regexp.MustCompile(`\.` + field + `(\.[a-z]+)?\s*=[^=]`)
	return re.MatchString(body)
}
