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
)

// DirectAccessBit addresses one bit of the direct access register space
type DirectAccessBit struct {
	Register int `json:"reg"`
	Bit      int `json:"bit"`
}

// DirectAccessSet is the direct access counterpart of RegisterSet
type DirectAccessSet map[DirectAccessBit]bool

// DirectAccessNames returns the sorted names of the direct access parameters
func (c *Compiler) DirectAccessNames() []string {
	return sortedKeys(c.catalog.DirectAccess)
}

// CompileDirectAccess maps named bits to their addresses
func (c *Compiler) CompileDirectAccess(values map[string]bool) (DirectAccessSet, error) {
	set := DirectAccessSet{}
	for _, name := range sortedKeys(values) {
		p, ok := c.catalog.DirectAccess[normalize(name)]
		if !ok {
			return nil, ErrUnknownDirectAccess{Name: name}
		}
		set[DirectAccessBit{Register: p.Register, Bit: p.Bit}] = values[name]
	}
	return set, nil
}

// DecompileDirectAccess names the bits present in set. Bits unknown to the catalog are ignored.
func (c *Compiler) DecompileDirectAccess(set DirectAccessSet) map[string]bool {
	values := map[string]bool{}
	for name, p := range c.catalog.DirectAccess {
		if v, ok := set[DirectAccessBit{Register: p.Register, Bit: p.Bit}]; ok {
			values[name] = v
		}
	}
	return values
}

func (c *Compiler) DirectAccessDefaults() map[string]bool {
	values := make(map[string]bool, len(c.catalog.DirectAccess))
	for name, p := range c.catalog.DirectAccess {
		values[name] = p.Default
	}
	return values
}

// Bits returns the addresses in the set ordered by register then bit
func (s DirectAccessSet) Bits() []DirectAccessBit {
	bits := make([]DirectAccessBit, 0, len(s))
	for b := range s {
		bits = append(bits, b)
	}
	sort.Slice(bits, func(i, j int) bool {
		if bits[i].Register != bits[j].Register {
			return bits[i].Register < bits[j].Register
		}
		return bits[i].Bit < bits[j].Bit
	})
	return bits
}
