package schema

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/speakeasy-api/jaxrsflow"
	"github.com/speakeasy-api/jaxrsflow/analysis"
	"gopkg.in/yaml.v3"
)

// OpenAPIVersion is written into every rendered document.
const OpenAPIVersion = "3.1.0"

const anyMediaType = "*/*"

// DocumentOptions carry the document level metadata.
type DocumentOptions struct {
	Title   string
	Version string
}

// Document renders res as an OpenAPI document. Entity types are built
// through b, so its definitions end up under components.
func Document(res *analysis.Resources, b *Builder, opts DocumentOptions) *yaml.Node {
	doc := mapping()
	addScalar(doc, "openapi", OpenAPIVersion)

	info := mapping()
	addScalar(info, "title", opts.Title)
	addScalar(info, "version", opts.Version)
	add(doc, "info", info)

	if res.BasePath != "" {
		server := mapping()
		addScalar(server, "url", "/"+res.BasePath)
		servers := sequence()
		servers.Content = append(servers.Content, server)
		add(doc, "servers", servers)
	}

	paths := mapping()
	for path, methods := range res.Paths.All() {
		item := mapping()
		for _, m := range methods {
			add(item, strings.ToLower(m.Method), operation(b, m))
		}
		add(paths, "/"+path, item)
	}
	add(doc, "paths", paths)

	defs := b.Definitions()
	if defs.Len() > 0 {
		schemas := mapping()
		for name, s := range defs.All() {
			add(schemas, name, RenderYAML(s.Left))
		}
		components := mapping()
		add(components, "schemas", schemas)
		add(doc, "components", components)
	}
	return doc
}

func operation(b *Builder, m *analysis.ResourceMethod) *yaml.Node {
	op := mapping()
	addScalar(op, "operationId", m.Signature.Name)

	if m.RequestBody != nil {
		body := mapping()
		add(body, "content", content(b, m.RequestMediaTypes, m.RequestBody))
		add(op, "requestBody", body)
	}

	responses := mapping()
	for _, r := range m.Responses {
		resp := mapping()
		addScalar(resp, "description", description(r.Status))
		if len(r.Headers) > 0 {
			headers := mapping()
			for _, h := range r.Headers {
				header := mapping()
				add(header, "schema", RenderYAML(primitive(jaxrsflow.String)))
				add(headers, h, header)
			}
			add(resp, "headers", headers)
		}
		if r.Entity != nil {
			types := r.ContentTypes
			if len(types) == 0 {
				types = m.ResponseMediaTypes
			}
			add(resp, "content", content(b, types, r.Entity))
		}
		add(responses, strconv.Itoa(r.Status), resp)
	}
	add(op, "responses", responses)
	return op
}

func content(b *Builder, mediaTypes []string, entity *jaxrsflow.TypeIdentifier) *yaml.Node {
	if len(mediaTypes) == 0 {
		mediaTypes = []string{anyMediaType}
	}
	schema := b.Build(*entity)
	c := mapping()
	for _, mt := range mediaTypes {
		media := mapping()
		add(media, "schema", RenderYAML(schema))
		add(c, mt, media)
	}
	return c
}

func description(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Status " + strconv.Itoa(status)
}
