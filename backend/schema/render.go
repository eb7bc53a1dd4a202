package schema

import (
	"strconv"

	"github.com/speakeasy-api/openapi/jsonschema/oas3"
	"gopkg.in/yaml.v3"
)

// RenderYAML converts s into a YAML mapping node. Only the keywords the
// builder produces are rendered, in a stable order.
func RenderYAML(s *oas3.Schema) *yaml.Node {
	m := mapping()
	if s == nil {
		return m
	}
	if s.Ref != nil {
		addScalar(m, "$ref", string(*s.Ref))
	}
	if types := s.GetType(); len(types) == 1 {
		addScalar(m, "type", string(types[0]))
	} else if len(types) > 1 {
		seq := sequence()
		for _, t := range types {
			seq.Content = append(seq.Content, scalar(string(t)))
		}
		add(m, "type", seq)
	}
	if s.Format != nil {
		addScalar(m, "format", *s.Format)
	}
	if len(s.Enum) > 0 {
		seq := sequence()
		for _, v := range s.Enum {
			seq.Content = append(seq.Content, v)
		}
		add(m, "enum", seq)
	}
	if len(s.AllOf) > 0 {
		seq := sequence()
		for _, sub := range s.AllOf {
			seq.Content = append(seq.Content, RenderYAML(sub.Left))
		}
		add(m, "allOf", seq)
	}
	if s.Items != nil {
		add(m, "items", RenderYAML(s.Items.Left))
	}
	if s.Properties != nil {
		props := mapping()
		for name, p := range s.Properties.All() {
			add(props, name, RenderYAML(p.Left))
		}
		add(m, "properties", props)
	}
	if s.XML != nil {
		add(m, "xml", renderXML(s.XML))
	}
	return m
}

func renderXML(x *oas3.XML) *yaml.Node {
	m := mapping()
	if x.Namespace != nil {
		addScalar(m, "namespace", *x.Namespace)
	}
	if x.Name != nil {
		addScalar(m, "name", *x.Name)
	}
	if x.Prefix != nil {
		addScalar(m, "prefix", *x.Prefix)
	}
	if x.Attribute != nil {
		add(m, "attribute", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(*x.Attribute)})
	}
	return m
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func sequence() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func add(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, scalar(key), value)
}

func addScalar(m *yaml.Node, key, value string) {
	add(m, key, scalar(value))
}
