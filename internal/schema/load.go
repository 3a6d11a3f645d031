package schema

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlSchema is the wire form of a schema definition in YAML (or JSON, which
// yaml.v3 parses as a subset).
type yamlSchema struct {
	Name      string     `yaml:"name"`
	Stopwords []string   `yaml:"stopwords"`
	Fields    []yamlNode `yaml:"fields"`
}

// yamlNode describes one field or, when Fields is non-empty, one group.
type yamlNode struct {
	ID         int        `yaml:"id"`
	Name       string     `yaml:"name"`
	Repeatable bool       `yaml:"repeatable"`
	Type       string     `yaml:"type"`
	Analyzer   []string   `yaml:"analyzer"`
	Lookup     string     `yaml:"lookup"`
	Fields     []yamlNode `yaml:"fields"`
}

// xmlSchema is the wire form of a schema definition in XML. Groups are field
// elements with nested field children, which keeps declaration order intact.
type xmlSchema struct {
	XMLName   xml.Name  `xml:"schema"`
	Name      string    `xml:"name,attr"`
	Stopwords string    `xml:"stopwords"`
	Fields    []xmlNode `xml:"field"`
}

type xmlNode struct {
	ID         int       `xml:"id,attr"`
	Name       string    `xml:"name,attr"`
	Repeatable bool      `xml:"repeatable,attr"`
	Type       string    `xml:"type,attr"`
	Analyzer   string    `xml:"analyzer,attr"`
	Lookup     string    `xml:"lookup,attr"`
	Fields     []xmlNode `xml:"field"`
}

// Load reads a schema definition file, dispatching on extension: .xml is
// parsed as XML, anything else as YAML/JSON.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		return ParseXML(data)
	}
	return ParseYAML(data)
}

// ParseYAML builds a Schema from a YAML (or JSON) definition.
func ParseYAML(data []byte) (*Schema, error) {
	var def yamlSchema
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	s := &Schema{Name: def.Name}
	children, err := buildYAMLNodes(def.Fields)
	if err != nil {
		return nil, err
	}
	s.Children = children
	if err := s.buildScopes(); err != nil {
		return nil, err
	}
	s.setStopwords(def.Stopwords)
	return s, nil
}

// ParseXML builds a Schema from an XML definition.
func ParseXML(data []byte) (*Schema, error) {
	var def xmlSchema
	if err := xml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	s := &Schema{Name: def.Name}
	children, err := buildXMLNodes(def.Fields)
	if err != nil {
		return nil, err
	}
	s.Children = children
	if err := s.buildScopes(); err != nil {
		return nil, err
	}
	s.setStopwords(strings.Fields(def.Stopwords))
	return s, nil
}

func buildYAMLNodes(defs []yamlNode) ([]Node, error) {
	nodes := make([]Node, 0, len(defs))
	for _, d := range defs {
		if len(d.Fields) > 0 {
			if d.Type != "" || len(d.Analyzer) > 0 {
				return nil, fmt.Errorf("group %q must not declare a type or analyzer chain", d.Name)
			}
			children, err := buildYAMLNodes(d.Fields)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &Group{
				ID:         d.ID,
				Name:       d.Name,
				Repeatable: d.Repeatable,
				Children:   children,
			})
			continue
		}
		ft, err := parseFieldType(d.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", d.Name, err)
		}
		nodes = append(nodes, &Field{
			ID:         d.ID,
			Name:       d.Name,
			Repeatable: d.Repeatable,
			Type:       ft,
			Analyzers:  d.Analyzer,
			Lookup:     d.Lookup,
		})
	}
	return nodes, nil
}

func buildXMLNodes(defs []xmlNode) ([]Node, error) {
	nodes := make([]Node, 0, len(defs))
	for _, d := range defs {
		if len(d.Fields) > 0 {
			if d.Type != "" || d.Analyzer != "" {
				return nil, fmt.Errorf("group %q must not declare a type or analyzer chain", d.Name)
			}
			children, err := buildXMLNodes(d.Fields)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &Group{
				ID:         d.ID,
				Name:       d.Name,
				Repeatable: d.Repeatable,
				Children:   children,
			})
			continue
		}
		ft, err := parseFieldType(d.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", d.Name, err)
		}
		var chain []string
		for _, id := range strings.FieldsFunc(d.Analyzer, func(r rune) bool { return r == ',' || r == ' ' }) {
			chain = append(chain, id)
		}
		nodes = append(nodes, &Field{
			ID:         d.ID,
			Name:       d.Name,
			Repeatable: d.Repeatable,
			Type:       ft,
			Analyzers:  chain,
			Lookup:     d.Lookup,
		})
	}
	return nodes, nil
}

func parseFieldType(t string) (FieldType, error) {
	switch FieldType(t) {
	case TypeText, TypeValues, TypeBoolean, TypeInteger, TypeDate, TypeISBN:
		return FieldType(t), nil
	case "":
		return TypeText, nil
	default:
		return "", fmt.Errorf("unknown field type %q", t)
	}
}
