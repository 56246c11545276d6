package main

import (
	"strings"

	"github.com/gekko3d/meshpbr/material"
)

const (
	materialName = "DefaultMaterial"

	baseColorParam         = "baseColorMap"
	metallicRoughnessParam = "metallicRoughnessMap"
)

// buildMaterialShader writes the material body for the maps that loaded.
// Without maps the surface is a smooth pink dielectric.
func buildMaterialShader(hasBaseColorMap, hasMetallicRoughnessMap bool) string {
	var sb strings.Builder
	sb.WriteString(`
    fn material(inputs: ptr<function, MaterialInputs>) {
        prepareMaterial(inputs);
`)
	if hasBaseColorMap {
		sb.WriteString(`
        (*inputs).baseColor = vec4<f32>(textureSample(materialParams_baseColorMap, materialParams_baseColorMapSampler, getUV0()).rgb, (*inputs).baseColor.a);
`)
	} else {
		sb.WriteString(`
        (*inputs).baseColor = vec4<f32>(vec3<f32>(1.0, 0.75, 0.94), (*inputs).baseColor.a);
`)
	}
	if hasMetallicRoughnessMap {
		sb.WriteString(`
        let metallicRoughness = textureSample(materialParams_metallicRoughnessMap, materialParams_metallicRoughnessMapSampler, getUV0()).rg;
        (*inputs).metallic = metallicRoughness.x;
        (*inputs).roughness = metallicRoughness.y;
`)
	} else {
		sb.WriteString(`
        (*inputs).metallic = 0.0;
        (*inputs).roughness = 0.1;
`)
	}
	sb.WriteString("}\n")
	return sb.String()
}

// buildMaterial compiles DefaultMaterial with a sampler parameter per map.
func buildMaterial(hasBaseColorMap, hasMetallicRoughnessMap bool) (*material.Package, error) {
	builder := material.NewBuilder().
		Name(materialName).
		Set(material.BaseColor).
		Set(material.Metallic).
		Set(material.Roughness).
		Material(buildMaterialShader(hasBaseColorMap, hasMetallicRoughnessMap)).
		Shading(material.Lit)

	if hasBaseColorMap {
		builder.
			Require(material.UV0).
			Parameter(material.Sampler2D, baseColorParam)
	}
	if hasMetallicRoughnessMap {
		builder.
			Require(material.UV0).
			Parameter(material.Sampler2D, metallicRoughnessParam)
	}
	return builder.Build()
}
