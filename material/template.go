package material

import (
	_ "embed"
	"strings"
	"text/template"
)

//go:embed shaders/pbr.wgsl.tmpl
var pbrTemplateSource string

var pbrTemplate = template.Must(template.New("pbr").Parse(pbrTemplateSource))

type templateData struct {
	Name       string
	Shading    Shading
	Lit        bool
	Group      int
	Parameters []Parameter
	Body       string
}

func generate(pkg *Package, body string) (string, error) {
	var sb strings.Builder
	err := pbrTemplate.Execute(&sb, templateData{
		Name:       pkg.Name,
		Shading:    pkg.Shading,
		Lit:        pkg.Shading == Lit,
		Group:      ParameterGroup,
		Parameters: pkg.Parameters,
		Body:       strings.TrimSpace(body),
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
