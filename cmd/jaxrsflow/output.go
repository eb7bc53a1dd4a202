package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	goyaml "github.com/itchyny/go-yaml"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/speakeasy-api/jaxrsflow"
	"github.com/speakeasy-api/jaxrsflow/analysis"
	"github.com/speakeasy-api/jaxrsflow/backend/schema"
	"github.com/speakeasy-api/jaxrsflow/internal/config"
	"github.com/speakeasy-api/jaxrsflow/typerep"
)

var primitiveNames = map[string]string{
	jaxrsflow.Void:    "void",
	jaxrsflow.Boolean: "boolean",
	jaxrsflow.Byte:    "byte",
	jaxrsflow.Char:    "char",
	jaxrsflow.Short:   "short",
	jaxrsflow.Int:     "int",
	jaxrsflow.Long:    "long",
	jaxrsflow.Float:   "float",
	jaxrsflow.Double:  "double",
}

// typeName renders a type the way it reads in Java source, e.g. List<Task>.
func typeName(id *jaxrsflow.TypeIdentifier) string {
	if id == nil || id.IsZero() {
		return ""
	}
	if id.IsDynamic() {
		return "JsonObject"
	}
	return descriptorName(id.Type)
}

func descriptorName(desc string) string {
	if n, ok := primitiveNames[desc]; ok {
		return n
	}
	if jaxrsflow.IsArray(desc) {
		return descriptorName(jaxrsflow.ComponentType(desc)) + "[]"
	}
	name := jaxrsflow.SimpleName(desc)
	params := jaxrsflow.TypeParameters(desc)
	if len(params) == 0 {
		return name
	}
	args := make([]string, len(params))
	for i, p := range params {
		args[i] = descriptorName(p)
	}
	return name + "<" + strings.Join(args, ", ") + ">"
}

func writeResources(w io.Writer, res *analysis.Resources, registry *typerep.Registry, out config.Output) error {
	switch out.Format {
	case config.FormatYAML:
		return writeYAML(w, res)
	case config.FormatOpenAPI:
		return writeOpenAPI(w, res, registry, out)
	default:
		return writeTable(w, res)
	}
}

var tableHeader = []string{"METHOD", "PATH", "STATUS", "ENTITY", "CONTENT-TYPE", "HEADERS"}

func writeTable(w io.Writer, res *analysis.Resources) error {
	rows := [][]string{tableHeader}
	for path, methods := range res.Paths.All() {
		full := "/" + strings.TrimPrefix(joinPath(res.BasePath, path), "/")
		for _, m := range methods {
			if len(m.Responses) == 0 {
				rows = append(rows, []string{m.Method, full, "-", "", "", ""})
				continue
			}
			for _, r := range m.Responses {
				rows = append(rows, []string{
					m.Method,
					full,
					strconv.Itoa(r.Status),
					typeName(r.Entity),
					strings.Join(r.ContentTypes, ","),
					strings.Join(r.Headers, ","),
				})
			}
		}
	}

	widths := make([]int, len(tableHeader))
	for _, row := range rows {
		for i, v := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(v))
		}
	}
	for _, row := range rows {
		var line strings.Builder
		for i, v := range row {
			if i > 0 {
				line.WriteString("  ")
			}
			line.WriteString(runewidth.FillRight(v, widths[i]))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}

func joinPath(base, path string) string {
	switch {
	case base == "":
		return path
	case path == "":
		return base
	}
	return base + "/" + path
}

// writeYAML prints the resources as an ordered YAML document, close to the
// table but with every method detail.
func writeYAML(w io.Writer, res *analysis.Resources) error {
	paths := yamlMapping()
	for path, methods := range res.Paths.All() {
		ms := yamlMapping()
		for _, m := range methods {
			yamlAdd(ms, yamlString(m.Method), methodYAML(m))
		}
		yamlAdd(paths, yamlString("/"+path), ms)
	}
	doc := yamlMapping()
	yamlAdd(doc, yamlString("basePath"), yamlString("/"+res.BasePath))
	yamlAdd(doc, yamlString("paths"), paths)

	data, err := goyaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func methodYAML(m *analysis.ResourceMethod) *goyaml.Node {
	out := yamlMapping()
	yamlAdd(out, yamlString("method"), yamlString(m.Signature.String()))
	if len(m.RequestMediaTypes) > 0 {
		yamlAdd(out, yamlString("consumes"), yamlStrings(m.RequestMediaTypes))
	}
	if len(m.ResponseMediaTypes) > 0 {
		yamlAdd(out, yamlString("produces"), yamlStrings(m.ResponseMediaTypes))
	}
	if m.RequestBody != nil {
		yamlAdd(out, yamlString("requestBody"), yamlString(typeName(m.RequestBody)))
	}
	responses := yamlMapping()
	for _, r := range m.Responses {
		item := yamlMapping()
		if r.Entity != nil {
			yamlAdd(item, yamlString("entity"), yamlString(typeName(r.Entity)))
		}
		if len(r.ContentTypes) > 0 {
			yamlAdd(item, yamlString("contentTypes"), yamlStrings(r.ContentTypes))
		}
		if len(r.Headers) > 0 {
			yamlAdd(item, yamlString("headers"), yamlStrings(r.Headers))
		}
		status := &goyaml.Node{Kind: goyaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(r.Status)}
		yamlAdd(responses, status, item)
	}
	yamlAdd(out, yamlString("responses"), responses)
	if len(m.Warnings) > 0 {
		yamlAdd(out, yamlString("warnings"), yamlStrings(m.Warnings))
	}
	return out
}

func yamlMapping() *goyaml.Node {
	return &goyaml.Node{Kind: goyaml.MappingNode, Tag: "!!map"}
}

func yamlString(v string) *goyaml.Node {
	return &goyaml.Node{Kind: goyaml.ScalarNode, Tag: "!!str", Value: v}
}

func yamlStrings(vs []string) *goyaml.Node {
	seq := &goyaml.Node{Kind: goyaml.SequenceNode, Tag: "!!seq"}
	for _, v := range vs {
		seq.Content = append(seq.Content, yamlString(v))
	}
	return seq
}

func yamlAdd(m, key, value *goyaml.Node) {
	m.Content = append(m.Content, key, value)
}

func writeOpenAPI(w io.Writer, res *analysis.Resources, registry *typerep.Registry, out config.Output) error {
	doc := schema.Document(res, schema.NewBuilder(registry), schema.DocumentOptions{
		Title:   out.Title,
		Version: out.Version,
	})
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding openapi document: %w", err)
	}
	return enc.Close()
}
