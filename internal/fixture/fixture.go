// Package fixture loads YAML descriptions of compiled classes and JAX-RS
// resources. A fixture carries what a class file reader and an annotation
// scanner would produce: class layouts, method bodies as instruction lists,
// and resource classes with their paths and HTTP methods.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/speakeasy-api/jaxrsflow"
	"github.com/speakeasy-api/jaxrsflow/analysis"
	"github.com/speakeasy-api/jaxrsflow/simulate"
	"github.com/speakeasy-api/jaxrsflow/typerep"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// ErrUnknownKind is returned for instructions with an unrecognized op.
var ErrUnknownKind = errors.New("unknown instruction kind")

// File is the YAML document layout.
type File struct {
	Classes   []ClassSpec    `yaml:"classes"`
	Resources []ResourceSpec `yaml:"resources"`
}

type ClassSpec struct {
	Name    string       `yaml:"name"`
	Super   string       `yaml:"super,omitempty"`
	XML     *XMLSpec     `yaml:"xml,omitempty"`
	Fields  []FieldSpec  `yaml:"fields,omitempty"`
	Enum    []string     `yaml:"enum,omitempty"`
	Methods []MethodSpec `yaml:"methods,omitempty"`
}

type FieldSpec struct {
	Name string   `yaml:"name"`
	Type string   `yaml:"type"`
	XML  *XMLSpec `yaml:"xml,omitempty"`
}

type XMLSpec struct {
	Namespace string `yaml:"namespace,omitempty"`
	Name      string `yaml:"name,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Attribute bool   `yaml:"attribute,omitempty"`
}

type MethodSpec struct {
	Name      string            `yaml:"name"`
	Signature string            `yaml:"signature"`
	Static    bool              `yaml:"static,omitempty"`
	Code      []InstructionSpec `yaml:"code,omitempty"`
}

// ResourceSpec describes a resource class. Sub-resources are nested under
// the locator method that returns them.
type ResourceSpec struct {
	Class           string               `yaml:"class"`
	Path            string               `yaml:"path,omitempty"`
	ApplicationPath string               `yaml:"applicationPath,omitempty"`
	Consumes        []string             `yaml:"consumes,omitempty"`
	Produces        []string             `yaml:"produces,omitempty"`
	Methods         []ResourceMethodSpec `yaml:"methods"`
}

type ResourceMethodSpec struct {
	MethodSpec  `yaml:",inline"`
	HTTP        string        `yaml:"http,omitempty"`
	Path        string        `yaml:"path,omitempty"`
	Consumes    []string      `yaml:"consumes,omitempty"`
	Produces    []string      `yaml:"produces,omitempty"`
	Body        string        `yaml:"body,omitempty"`
	SubResource *ResourceSpec `yaml:"subresource,omitempty"`
}

// Fixture is a loaded and validated set of files.
type Fixture struct {
	Catalog   typerep.MapCatalog
	Resources []*analysis.ClassResult
}

// Load decodes one YAML document from r.
func Load(r io.Reader) (*Fixture, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding fixture: %w", err)
	}
	return f.build()
}

// LoadFile loads the fixture at path.
func LoadFile(path string) (*Fixture, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	fx, err := Load(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fx, nil
}

// LoadDir loads every .yaml and .yml file directly inside dir, in parallel,
// and merges them in file name order.
func LoadDir(ctx context.Context, dir string) (*Fixture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return LoadFiles(ctx, paths...)
}

// LoadFiles loads paths in parallel and merges them in argument order.
func LoadFiles(ctx context.Context, paths ...string) (*Fixture, error) {
	results := make([]*Fixture, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fx, err := LoadFile(p)
			if err != nil {
				return err
			}
			results[i] = fx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Merge(results...), nil
}

// Merge combines fixtures. Later class definitions replace earlier ones.
func Merge(fixtures ...*Fixture) *Fixture {
	out := &Fixture{Catalog: typerep.MapCatalog{}}
	for _, fx := range fixtures {
		if fx == nil {
			continue
		}
		for _, c := range fx.Catalog {
			out.Catalog.Add(c)
		}
		out.Resources = append(out.Resources, fx.Resources...)
	}
	return out
}

// ProjectMethods lists every method body the fixture knows, sorted by class
// and name.
func (fx *Fixture) ProjectMethods() []simulate.ProjectMethod {
	var out []simulate.ProjectMethod
	for _, name := range fx.Catalog.Names() {
		for _, m := range fx.Catalog[name].Methods {
			out = append(out, simulate.ProjectMethod{Identifier: m.Identifier, Instructions: m.Instructions})
		}
	}
	return out
}

// Lookup finds the method called name in class. When several overloads
// exist the first declared wins.
func (fx *Fixture) Lookup(class, name string) (typerep.Method, bool) {
	c, ok := fx.Catalog.Class(class)
	if !ok {
		return typerep.Method{}, false
	}
	for _, m := range c.Methods {
		if m.Identifier.Name == name {
			return m, true
		}
	}
	return typerep.Method{}, false
}

func (f *File) build() (*Fixture, error) {
	fx := &Fixture{Catalog: typerep.MapCatalog{}}
	for _, cs := range f.Classes {
		c, err := cs.class()
		if err != nil {
			return nil, err
		}
		fx.Catalog.Add(c)
	}
	for i := range f.Resources {
		cr, err := f.Resources[i].classResult(fx.Catalog, nil)
		if err != nil {
			return nil, err
		}
		fx.Resources = append(fx.Resources, cr)
	}
	return fx, nil
}

func (cs ClassSpec) class() (typerep.Class, error) {
	if cs.Name == "" {
		return typerep.Class{}, errors.New("class without name")
	}
	c := typerep.Class{
		Name:          cs.Name,
		Super:         cs.Super,
		EnumConstants: cs.Enum,
		XML:           cs.XML.metadata(),
	}
	for _, f := range cs.Fields {
		c.Fields = append(c.Fields, typerep.Field{Name: f.Name, Type: f.Type, XML: f.XML.metadata()})
	}
	for _, ms := range cs.Methods {
		m, err := ms.method(cs.Name)
		if err != nil {
			return typerep.Class{}, err
		}
		c.Methods = append(c.Methods, m)
	}
	return c, nil
}

func (x *XMLSpec) metadata() *typerep.XMLMetadata {
	if x == nil {
		return nil
	}
	return &typerep.XMLMetadata{Namespace: x.Namespace, Name: x.Name, Prefix: x.Prefix, Attribute: x.Attribute}
}

func (ms MethodSpec) method(class string) (typerep.Method, error) {
	id, err := jaxrsflow.MethodOf(class, ms.Name, ms.Signature, ms.Static)
	if err != nil {
		return typerep.Method{}, fmt.Errorf("method %s.%s: %w", class, ms.Name, err)
	}
	code, err := instructions(ms.Code)
	if err != nil {
		return typerep.Method{}, fmt.Errorf("method %s.%s: %w", class, ms.Name, err)
	}
	return typerep.Method{Identifier: id, Instructions: code}, nil
}

// classResult converts rs. Resource methods also become catalog methods so
// that resources calling each other resolve.
func (rs *ResourceSpec) classResult(catalog typerep.MapCatalog, locator *analysis.MethodResult) (*analysis.ClassResult, error) {
	if rs.Class == "" {
		return nil, errors.New("resource without class")
	}
	cr := &analysis.ClassResult{
		OriginalClass:            rs.Class,
		ResourcePath:             rs.Path,
		ApplicationPath:          rs.ApplicationPath,
		Consumes:                 rs.Consumes,
		Produces:                 rs.Produces,
		ParentSubResourceLocator: locator,
	}

	class, ok := catalog.Class(rs.Class)
	if !ok {
		class = typerep.Class{Name: rs.Class}
	}
	for i := range rs.Methods {
		ms := &rs.Methods[i]
		m, err := ms.method(rs.Class)
		if err != nil {
			return nil, err
		}
		if _, known := catalog.Method(m.Identifier); !known {
			class.Methods = append(class.Methods, m)
		}

		mr := analysis.NewMethodResult(m.Identifier, strings.ToUpper(ms.HTTP), m.Instructions)
		mr.Path = ms.Path
		mr.RequestMediaTypes = ms.Consumes
		mr.ResponseMediaTypes = ms.Produces
		mr.RequestBody = ms.Body
		cr.AddMethod(mr)

		if ms.SubResource != nil {
			if mr.HTTPMethod != "" {
				return nil, fmt.Errorf("method %s.%s: sub-resource locators have no HTTP method", rs.Class, ms.Name)
			}
			sub, err := ms.SubResource.classResult(catalog, mr)
			if err != nil {
				return nil, err
			}
			mr.SubResource = sub
		}
	}
	catalog.Add(class)
	return cr, nil
}
