/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package roc

import (
	"fmt"
	"os"
	"sort"

	"sigs.k8s.io/yaml"
)

type ParameterDef struct {
	Default   uint64             `json:"default"`
	Locations []RegisterLocation `json:"locations"`
}

type PageDef struct {
	Name    string `json:"name"`
	Address int    `json:"address"`
	Schema  string `json:"schema"`
}

// PageRangeDef describes Count pages named Prefix+First, Prefix+First+1, ...
// placed at Address, Address+Step, ...
type PageRangeDef struct {
	Prefix  string `json:"prefix"`
	First   int    `json:"first"`
	Count   int    `json:"count"`
	Address int    `json:"address"`
	Step    int    `json:"step,omitempty"`
	Schema  string `json:"schema"`
}

type DirectAccessDef struct {
	Register int  `json:"reg"`
	Bit      int  `json:"bit"`
	Default  bool `json:"default"`
}

// CatalogDef is the on-disk form of a catalog
type CatalogDef struct {
	Type         string                             `json:"type"`
	Version      string                             `json:"version"`
	Schemas      map[string]map[string]ParameterDef `json:"schemas"`
	Pages        []PageDef                          `json:"pages,omitempty"`
	PageRanges   []PageRangeDef                     `json:"page_ranges,omitempty"`
	DirectAccess map[string]DirectAccessDef         `json:"direct_access,omitempty"`
}

// ParseCatalog parses YAML catalog data
func ParseCatalog(data []byte) (*Catalog, error) {
	def := &CatalogDef{}
	if err := yaml.Unmarshal(data, def); err != nil {
		return nil, fmt.Errorf("could not parse catalog: %w", err)
	}
	return NewCatalog(def)
}

// LoadCatalogFile reads a YAML catalog from path
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}

// NewCatalog validates the definition and builds the lookup tables.
// All names are upper-cased here so lookups can be exact matches.
func NewCatalog(def *CatalogDef) (*Catalog, error) {
	c := &Catalog{
		Type:         def.Type,
		Version:      def.Version,
		Pages:        PageLUT{},
		Parameters:   ParameterLUT{},
		DirectAccess: DirectAccessLUT{},
	}

	for _, schemaName := range sortedKeys(def.Schemas) {
		page, err := newSchema(normalize(schemaName), def.Schemas[schemaName])
		if err != nil {
			return nil, err
		}
		if _, ok := c.Pages[page.Name]; ok {
			return nil, ErrCatalog{What: fmt.Sprintf("duplicate schema %s", page.Name)}
		}
		c.Pages[page.Name] = page
	}

	pages := append([]PageDef(nil), def.Pages...)
	for _, r := range def.PageRanges {
		step := r.Step
		if step == 0 {
			step = 1
		}
		for i := 0; i < r.Count; i++ {
			pages = append(pages, PageDef{
				Name:    fmt.Sprintf("%s%d", r.Prefix, r.First+i),
				Address: r.Address + i*step,
				Schema:  r.Schema,
			})
		}
	}

	addresses := map[int]string{}
	for _, p := range pages {
		name := normalize(p.Name)
		if name == "" {
			return nil, ErrCatalog{What: "page without name"}
		}
		schema, ok := c.Pages[normalize(p.Schema)]
		if !ok {
			return nil, ErrCatalog{What: fmt.Sprintf("page %s refers to unknown schema %s", name, p.Schema)}
		}
		if _, ok := c.Parameters[name]; ok {
			return nil, ErrCatalog{What: fmt.Sprintf("duplicate page %s", name)}
		}
		if p.Address < 0 {
			return nil, ErrCatalog{What: fmt.Sprintf("negative address of page %s", name)}
		}
		if other, ok := addresses[p.Address]; ok {
			return nil, ErrCatalog{What: fmt.Sprintf("pages %s and %s share address %d", other, name, p.Address)}
		}
		addresses[p.Address] = name
		c.Parameters[name] = &PageEntry{Name: name, Address: p.Address, Schema: schema}
		c.pageNames = append(c.pageNames, name)
	}
	sort.Strings(c.pageNames)

	bits := map[DirectAccessBit]string{}
	for _, rawName := range sortedKeys(def.DirectAccess) {
		d := def.DirectAccess[rawName]
		name := normalize(rawName)
		if d.Register < 0 || d.Bit < 0 || d.Bit >= RegisterBits {
			return nil, ErrCatalog{What: fmt.Sprintf("direct access parameter %s: bad bit %d of register %d", name, d.Bit, d.Register)}
		}
		if _, ok := c.DirectAccess[name]; ok {
			return nil, ErrCatalog{What: fmt.Sprintf("duplicate direct access parameter %s", name)}
		}
		bit := DirectAccessBit{Register: d.Register, Bit: d.Bit}
		if other, ok := bits[bit]; ok {
			return nil, ErrCatalog{What: fmt.Sprintf("direct access parameters %s and %s share a bit", other, name)}
		}
		bits[bit] = name
		c.DirectAccess[name] = &DirectAccessParameter{Name: name, Register: d.Register, Bit: d.Bit, Default: d.Default}
	}
	return c, nil
}

func newSchema(name string, defs map[string]ParameterDef) (*Page, error) {
	var params []*Parameter
	// register -> bits already owned by a parameter
	owned := map[int]uint8{}
	for _, rawName := range sortedKeys(defs) {
		def := defs[rawName]
		paramName := normalize(rawName)
		for _, other := range params {
			if other.Name == paramName {
				return nil, ErrCatalog{What: fmt.Sprintf("duplicate parameter %s in schema %s", paramName, name)}
			}
		}
		if len(def.Locations) == 0 {
			return nil, ErrCatalog{What: fmt.Sprintf("parameter %s of schema %s has no locations", paramName, name)}
		}
		p := &Parameter{
			Name:      paramName,
			Default:   def.Default,
			Locations: append([]RegisterLocation(nil), def.Locations...),
		}
		for _, l := range p.Locations {
			if !l.Valid() {
				return nil, ErrMalformedLocation{Parameter: name + "." + paramName, Location: l}
			}
			bits := l.Mask() << l.MinBit
			if owned[l.Register]&bits != 0 {
				return nil, ErrCatalog{What: fmt.Sprintf("parameter %s of schema %s overlaps register %d", paramName, name, l.Register)}
			}
			owned[l.Register] |= bits
		}
		if p.Width() > 64 {
			return nil, ErrCatalog{What: fmt.Sprintf("parameter %s of schema %s is wider than 64 bits", paramName, name)}
		}
		if !p.Fits(p.Default) {
			return nil, ErrCatalog{What: fmt.Sprintf("default of parameter %s of schema %s does not fit %d bits", paramName, name, p.Width())}
		}
		params = append(params, p)
	}
	return newPage(name, params), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
