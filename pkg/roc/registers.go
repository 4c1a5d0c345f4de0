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

// RegisterSet is a sparse image of chip registers: page address -> register offset -> byte
type RegisterSet map[int]map[int]uint8

// RegisterRow is one register of a RegisterSet in flat form
type RegisterRow struct {
	Page     int   `json:"page"`
	Register int   `json:"register"`
	Value    uint8 `json:"value"`
}

func NewRegisterSet() RegisterSet {
	return RegisterSet{}
}

func RegisterSetFromRows(rows []RegisterRow) RegisterSet {
	rs := NewRegisterSet()
	for _, row := range rows {
		rs.Set(row.Page, row.Register, row.Value)
	}
	return rs
}

func (rs RegisterSet) Get(page, reg int) (uint8, bool) {
	v, ok := rs[page][reg]
	return v, ok
}

func (rs RegisterSet) Has(page, reg int) bool {
	_, ok := rs[page][reg]
	return ok
}

func (rs RegisterSet) Set(page, reg int, value uint8) {
	regs, ok := rs[page]
	if !ok {
		regs = make(map[int]uint8)
		rs[page] = regs
	}
	regs[reg] = value
}

// Merge copies every register of other into rs, overwriting existing values
func (rs RegisterSet) Merge(other RegisterSet) {
	for page, regs := range other {
		for reg, value := range regs {
			rs.Set(page, reg, value)
		}
	}
}

func (rs RegisterSet) Clone() RegisterSet {
	clone := NewRegisterSet()
	clone.Merge(rs)
	return clone
}

// Pages returns the sorted page addresses
func (rs RegisterSet) Pages() []int {
	pages := make([]int, 0, len(rs))
	for page := range rs {
		pages = append(pages, page)
	}
	sort.Ints(pages)
	return pages
}

// Registers returns the sorted register offsets present for a page
func (rs RegisterSet) Registers(page int) []int {
	regs := make([]int, 0, len(rs[page]))
	for reg := range rs[page] {
		regs = append(regs, reg)
	}
	sort.Ints(regs)
	return regs
}

// Len is the number of registers in the set
func (rs RegisterSet) Len() int {
	n := 0
	for _, regs := range rs {
		n += len(regs)
	}
	return n
}

// Rows flattens the set ordered by page then register
func (rs RegisterSet) Rows() []RegisterRow {
	rows := make([]RegisterRow, 0, rs.Len())
	for _, page := range rs.Pages() {
		for _, reg := range rs.Registers(page) {
			rows = append(rows, RegisterRow{Page: page, Register: reg, Value: rs[page][reg]})
		}
	}
	return rows
}
