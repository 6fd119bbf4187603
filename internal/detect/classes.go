package detect

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Class describes how one model class is named and drawn.
type Class struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name"`
	Color string `yaml:"color"` // #rrggbb
}

// classFile is the on-disk layout of CLASSES_FILE.
type classFile struct {
	Classes []Class `yaml:"classes"`
}

// ClassMap resolves class ids to names and colours.
type ClassMap struct {
	classes map[int]Class
}

var fallbackColor = color.RGBA{R: 255, G: 255, B: 0, A: 255}

// DefaultClasses is the mapping the bundled billboard model was trained with.
func DefaultClasses() ClassMap {
	return NewClassMap([]Class{
		{ID: 0, Name: "Billboard", Color: "#00ff00"},
		{ID: 1, Name: "Stand", Color: "#ff0000"},
	})
}

func NewClassMap(classes []Class) ClassMap {
	m := ClassMap{classes: make(map[int]Class, len(classes))}
	for _, c := range classes {
		m.classes[c.ID] = c
	}
	return m
}

// LoadClasses reads a YAML class file. An empty path returns DefaultClasses.
func LoadClasses(path string) (ClassMap, error) {
	if path == "" {
		return DefaultClasses(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ClassMap{}, fmt.Errorf("read classes file: %w", err)
	}
	var file classFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return ClassMap{}, fmt.Errorf("parse classes file: %w", err)
	}
	if len(file.Classes) == 0 {
		return ClassMap{}, fmt.Errorf("classes file %s defines no classes", path)
	}
	for _, c := range file.Classes {
		if c.Color == "" {
			continue
		}
		if _, err := parseHexColor(c.Color); err != nil {
			return ClassMap{}, fmt.Errorf("class %d: %w", c.ID, err)
		}
	}
	return NewClassMap(file.Classes), nil
}

// Name returns the configured name of id, or "" when the class is unknown.
func (m ClassMap) Name(id int) string {
	return m.classes[id].Name
}

// Label returns the class name, falling back to the numeric id.
func (m ClassMap) Label(id int) string {
	if name := m.Name(id); name != "" {
		return name
	}
	return strconv.Itoa(id)
}

// Color returns the drawing colour of id.
func (m ClassMap) Color(id int) color.RGBA {
	c, ok := m.classes[id]
	if !ok || c.Color == "" {
		return fallbackColor
	}
	rgba, err := parseHexColor(c.Color)
	if err != nil {
		return fallbackColor
	}
	return rgba
}

func parseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
