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
	"sort"
	"strings"
)

// Parameter is a named value spread over one or more register locations.
// The first location holds the least significant chunk of the value.
type Parameter struct {
	Name      string
	Default   uint64
	Locations []RegisterLocation
}

// Width is the total number of bits of the parameter
func (p *Parameter) Width() int {
	width := 0
	for _, l := range p.Locations {
		width += l.NBits
	}
	return width
}

// Registers returns the distinct register offsets the parameter occupies
func (p *Parameter) Registers() []int {
	var regs []int
	seen := map[int]bool{}
	for _, l := range p.Locations {
		if !seen[l.Register] {
			seen[l.Register] = true
			regs = append(regs, l.Register)
		}
	}
	return regs
}

// Fits reports whether value can be represented in Width bits
func (p *Parameter) Fits(value uint64) bool {
	width := p.Width()
	return width >= 64 || value>>width == 0
}

// Split cuts value into one chunk per location
func (p *Parameter) Split(value uint64) []uint64 {
	chunks := make([]uint64, len(p.Locations))
	for i, l := range p.Locations {
		chunks[i] = value & uint64(l.Mask())
		value >>= l.NBits
	}
	return chunks
}

// Join is the inverse of Split
func (p *Parameter) Join(chunks []uint64) uint64 {
	var value uint64
	shift := 0
	for i, l := range p.Locations {
		value |= (chunks[i] & uint64(l.Mask())) << shift
		shift += l.NBits
	}
	return value
}

// Page is a schema shared by all concrete pages of one kind, e.g. every channel.
type Page struct {
	Name   string
	params map[string]*Parameter
	names  []string
}

func newPage(name string, params []*Parameter) *Page {
	p := &Page{
		Name:   name,
		params: make(map[string]*Parameter, len(params)),
	}
	for _, param := range params {
		p.params[param.Name] = param
		p.names = append(p.names, param.Name)
	}
	sort.Strings(p.names)
	return p
}

// Parameter looks up a parameter by case-insensitive name
func (p *Page) Parameter(name string) (*Parameter, bool) {
	param, ok := p.params[normalize(name)]
	return param, ok
}

// ParameterNames returns the sorted parameter names
func (p *Page) ParameterNames() []string {
	return append([]string(nil), p.names...)
}

// Registers returns the sorted offsets of all registers used by the schema
func (p *Page) Registers() []int {
	seen := map[int]bool{}
	var regs []int
	for _, param := range p.params {
		for _, reg := range param.Registers() {
			if !seen[reg] {
				seen[reg] = true
				regs = append(regs, reg)
			}
		}
	}
	sort.Ints(regs)
	return regs
}

// PageEntry binds a concrete page name to its address and schema
type PageEntry struct {
	Name    string
	Address int
	Schema  *Page
}

type PageLUT map[string]*Page

type ParameterLUT map[string]*PageEntry

// DirectAccessParameter is a single bit outside of the paged address space
type DirectAccessParameter struct {
	Name     string
	Register int
	Bit      int
	Default  bool
}

type DirectAccessLUT map[string]*DirectAccessParameter

// Catalog holds the immutable description of one chip type and version.
// It is safe to share between goroutines.
type Catalog struct {
	Type         string
	Version      string
	Pages        PageLUT
	Parameters   ParameterLUT
	DirectAccess DirectAccessLUT
	pageNames    []string
}

// PageNames returns the sorted names of all concrete pages
func (c *Catalog) PageNames() []string {
	return append([]string(nil), c.pageNames...)
}

// Page looks up a concrete page by case-insensitive name
func (c *Catalog) Page(name string) (*PageEntry, bool) {
	entry, ok := c.Parameters[normalize(name)]
	return entry, ok
}

// Resolve returns the sorted concrete page names matching the pattern
func (c *Catalog) Resolve(pattern Pattern) ([]string, error) {
	if pattern.Kind == PatternExact {
		if _, ok := c.Parameters[pattern.Name]; !ok {
			return nil, ErrUnknownPage{Pattern: pattern.String()}
		}
		return []string{pattern.Name}, nil
	}
	return pattern.Resolve(c.pageNames)
}

func normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
