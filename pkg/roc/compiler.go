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

	"jinr.ru/greenlab/go-roc/pkg/log"
)

// Compiler translates named parameter values into register bytes and back.
// It holds no mutable state, calls on independent register sets may run concurrently.
type Compiler struct {
	catalog *Catalog
}

func NewCompiler(catalog *Catalog) *Compiler {
	return &Compiler{catalog: catalog}
}

func (c *Compiler) Catalog() *Catalog {
	return c.catalog
}

// Pages resolves a page pattern to concrete page names
func (c *Compiler) Pages(pattern string) ([]string, error) {
	return c.catalog.Resolve(ParsePattern(pattern))
}

// Parameters returns the sorted parameter names of a concrete page
func (c *Compiler) Parameters(page string) ([]string, error) {
	entry, ok := c.catalog.Page(page)
	if !ok {
		return nil, ErrUnknownPage{Pattern: page}
	}
	return entry.Schema.ParameterNames(), nil
}

// Parameter returns the definition of a parameter on a concrete page
func (c *Compiler) Parameter(page, name string) (*Parameter, error) {
	entry, ok := c.catalog.Page(page)
	if !ok {
		return nil, ErrUnknownPage{Pattern: page}
	}
	p, ok := entry.Schema.Parameter(name)
	if !ok {
		return nil, ErrUnknownParameter{Page: entry.Name, Parameter: normalize(name)}
	}
	return p, nil
}

// CompilePage writes value of param on an already resolved page into registers.
// Registers missing from the set start at 0.
func (c *Compiler) CompilePage(page, param string, value uint64, registers RegisterSet) error {
	entry, ok := c.catalog.Page(page)
	if !ok {
		return ErrUnknownPage{Pattern: page}
	}
	p, ok := entry.Schema.Parameter(param)
	if !ok {
		return ErrUnknownParameter{Page: entry.Name, Parameter: normalize(param)}
	}
	return compileParameter(entry, p, value, registers)
}

// Compile writes value of param on every page selected by pattern into registers.
// Nothing is written unless the parameter exists on all selected pages.
func (c *Compiler) Compile(pattern, param string, value uint64, registers RegisterSet) error {
	pages, err := c.Pages(pattern)
	if err != nil {
		return err
	}
	entries := make([]*PageEntry, len(pages))
	params := make([]*Parameter, len(pages))
	for i, page := range pages {
		entries[i] = c.catalog.Parameters[page]
		p, ok := entries[i].Schema.Parameter(param)
		if !ok {
			return ErrUnknownParameter{Page: page, Parameter: normalize(param)}
		}
		params[i] = p
	}
	for i := range entries {
		if err := compileParameter(entries[i], params[i], value, registers); err != nil {
			return err
		}
	}
	return nil
}

func compileParameter(entry *PageEntry, p *Parameter, value uint64, registers RegisterSet) error {
	if !p.Fits(value) {
		log.Warning("Value %d of %s.%s does not fit %d bits, truncating", value, entry.Name, p.Name, p.Width())
	}
	chunks := p.Split(value)
	for i, l := range p.Locations {
		if !l.Valid() {
			return ErrMalformedLocation{Parameter: entry.Name + "." + p.Name, Location: l}
		}
		before, _ := registers.Get(entry.Address, l.Register)
		registers.Set(entry.Address, l.Register, Pack(before, l.MinBit, l.NBits, chunks[i]))
	}
	return nil
}

// Expand resolves every page pattern of s to concrete pages. Patterns are applied
// from the most general to the most specific, so CHANNEL_3 overrides CHANNEL_*.
// The result only has concrete page names and known parameters.
func (c *Compiler) Expand(s Settings) (Settings, error) {
	type patternKey struct {
		pattern Pattern
		key     string
	}
	var patterns []patternKey
	for key := range s {
		patterns = append(patterns, patternKey{pattern: ParsePattern(key), key: key})
	}
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].pattern == patterns[j].pattern {
			return patterns[i].key < patterns[j].key
		}
		return patterns[i].pattern.less(patterns[j].pattern)
	})

	expanded := NewSettings()
	for _, pk := range patterns {
		pages, err := c.catalog.Resolve(pk.pattern)
		if err != nil {
			return nil, err
		}
		params := s[pk.key]
		for _, page := range pages {
			schema := c.catalog.Parameters[page].Schema
			for _, name := range sortedKeys(params) {
				p, ok := schema.Parameter(name)
				if !ok {
					return nil, ErrUnknownParameter{Page: page, Parameter: normalize(name)}
				}
				expanded.Set(page, p.Name, params[name])
			}
		}
	}
	return expanded, nil
}

// CompileSettings compiles all settings into a fresh register set
func (c *Compiler) CompileSettings(s Settings) (RegisterSet, error) {
	registers := NewRegisterSet()
	if err := c.CompileOnto(s, registers); err != nil {
		return nil, err
	}
	return registers, nil
}

// CompileOnto compiles all settings on top of registers, e.g. a snapshot read from the chip.
// Bits not owned by the compiled parameters keep their value.
func (c *Compiler) CompileOnto(s Settings, registers RegisterSet) error {
	expanded, err := c.Expand(s)
	if err != nil {
		return err
	}
	for _, page := range expanded.Pages() {
		entry := c.catalog.Parameters[page]
		for _, name := range sortedKeys(expanded[page]) {
			p, _ := entry.Schema.Parameter(name)
			if err := compileParameter(entry, p, expanded[page][name], registers); err != nil {
				return err
			}
		}
	}
	return nil
}

// Layer expands every settings layer to concrete pages and puts it on top of the
// previous ones, optionally starting from the defaults of every parameter.
// A later layer overrides an earlier one even when it only names a glob.
func (c *Compiler) Layer(layers []Settings, prependDefaults bool) (Settings, error) {
	merged := NewSettings()
	if prependDefaults {
		merged = c.Defaults()
	}
	for _, s := range layers {
		expanded, err := c.Expand(s)
		if err != nil {
			return nil, err
		}
		merged.Overlay(expanded)
	}
	return merged, nil
}

// LoadSettings reads settings files and layers them in order, optionally on top of
// the defaults of every parameter. The result is expanded to concrete pages.
func (c *Compiler) LoadSettings(files []string, prependDefaults bool) (Settings, error) {
	var layers []Settings
	for _, file := range files {
		s, err := LoadSettingsFile(file)
		if err != nil {
			return nil, err
		}
		log.Debug("Loaded %d settings from %s", s.Len(), file)
		layers = append(layers, s)
	}
	return c.Layer(layers, prependDefaults)
}

// CompileFiles compiles settings files into a fresh register set.
// With prependDefaults every register of the chip is fully determined.
func (c *Compiler) CompileFiles(files []string, prependDefaults bool) (RegisterSet, error) {
	s, err := c.LoadSettings(files, prependDefaults)
	if err != nil {
		return nil, err
	}
	return c.CompileSettings(s)
}
