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

	"jinr.ru/greenlab/go-roc/pkg/log"
)

// Warning describes data skipped by Decompile. Parameter is empty when the whole page was skipped.
type Warning struct {
	Page      string `json:"page"`
	Parameter string `json:"parameter,omitempty"`
	// Missing register offsets
	Missing []int `json:"missing"`
}

func (w Warning) String() string {
	if w.Parameter == "" {
		return fmt.Sprintf("page %s skipped, no registers present", w.Page)
	}
	return fmt.Sprintf("parameter %s.%s skipped, missing registers %v", w.Page, w.Parameter, w.Missing)
}

// Decompile reconstructs parameter values from registers.
//
// In careful mode a parameter is skipped with a warning if any of its registers is missing,
// and a page without registers is skipped with a single warning. Otherwise a parameter is
// skipped only when all its registers are missing and missing chunks are read as 0.
func (c *Compiler) Decompile(registers RegisterSet, beCareful bool) (Settings, []Warning) {
	return c.decompile(c.catalog.pageNames, registers, beCareful)
}

// DecompilePages is Decompile limited to the pages selected by pattern
func (c *Compiler) DecompilePages(pattern string, registers RegisterSet, beCareful bool) (Settings, []Warning, error) {
	pages, err := c.Pages(pattern)
	if err != nil {
		return nil, nil, err
	}
	settings, warnings := c.decompile(pages, registers, beCareful)
	return settings, warnings, nil
}

func (c *Compiler) decompile(pages []string, registers RegisterSet, beCareful bool) (Settings, []Warning) {
	settings := NewSettings()
	var warnings []Warning
	for _, page := range pages {
		entry := c.catalog.Parameters[page]
		regs := registers[entry.Address]
		if len(regs) == 0 {
			if beCareful {
				warnings = append(warnings, Warning{Page: page, Missing: entry.Schema.Registers()})
			}
			continue
		}
		for _, name := range entry.Schema.names {
			p := entry.Schema.params[name]
			chunks := make([]uint64, len(p.Locations))
			var missing []int
			found := 0
			for i, l := range p.Locations {
				b, ok := regs[l.Register]
				if !ok {
					missing = appendUnique(missing, l.Register)
					continue
				}
				found++
				chunks[i] = Unpack(b, l.MinBit, l.NBits)
			}
			if found == 0 {
				if beCareful {
					warnings = append(warnings, Warning{Page: page, Parameter: name, Missing: missing})
				}
				continue
			}
			if len(missing) > 0 && beCareful {
				warnings = append(warnings, Warning{Page: page, Parameter: name, Missing: missing})
				continue
			}
			settings.Set(page, name, p.Join(chunks))
		}
	}
	for _, w := range warnings {
		log.Warning("Decompile: %s", w)
	}
	return settings, warnings
}

func appendUnique(regs []int, reg int) []int {
	for _, r := range regs {
		if r == reg {
			return regs
		}
	}
	return append(regs, reg)
}

// GetRegisters returns every register used by the pages selected by pattern, set to 0.
// It tells a transport what to read before Decompile.
func (c *Compiler) GetRegisters(pattern string) (RegisterSet, error) {
	pages, err := c.Pages(pattern)
	if err != nil {
		return nil, err
	}
	shape := NewRegisterSet()
	for _, page := range pages {
		entry := c.catalog.Parameters[page]
		for _, reg := range entry.Schema.Registers() {
			shape.Set(entry.Address, reg, 0)
		}
	}
	return shape, nil
}

// Defaults returns the default value of every parameter of every page
func (c *Compiler) Defaults() Settings {
	settings := NewSettings()
	for _, page := range c.catalog.pageNames {
		schema := c.catalog.Parameters[page].Schema
		for _, name := range schema.names {
			settings.Set(page, name, schema.params[name].Default)
		}
	}
	return settings
}
