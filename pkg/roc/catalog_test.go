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
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

const testCatalog = `
type: test
version: v1
schemas:
  block:
    a: {default: 1, locations: [{reg: 0, min_bit: 0, n_bits: 4}]}
    b: {default: 3, locations: [{reg: 0, min_bit: 4, n_bits: 4}, {reg: 1, min_bit: 0, n_bits: 2}]}
page_ranges:
  - {prefix: block_, first: 0, count: 3, address: 10, step: 2, schema: block}
pages:
  - {name: extra, address: 1, schema: BLOCK}
direct_access:
  reset: {reg: 0, bit: 7, default: true}
`

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(testCatalog))
	assert.NoError(t, err)
	assert.Equal(t, "test", c.Type)
	assert.Equal(t, []string{"BLOCK_0", "BLOCK_1", "BLOCK_2", "EXTRA"}, c.PageNames())

	entry, ok := c.Page("block_2")
	assert.True(t, ok)
	assert.Equal(t, 14, entry.Address)
	assert.Equal(t, []string{"A", "B"}, entry.Schema.ParameterNames())
	assert.Equal(t, []int{0, 1}, entry.Schema.Registers())

	p, ok := entry.Schema.Parameter("b")
	assert.True(t, ok)
	assert.Equal(t, uint64(3), p.Default)

	da, ok := c.DirectAccess["RESET"]
	assert.True(t, ok)
	assert.Equal(t, 7, da.Bit)
}

func TestCatalogValidation(t *testing.T) {
	tests := []struct {
		name    string
		catalog string
	}{
		{"overlapping bits", `
schemas:
  s:
    a: {locations: [{reg: 0, min_bit: 0, n_bits: 4}]}
    b: {locations: [{reg: 0, min_bit: 3, n_bits: 2}]}
`},
		{"default too wide", `
schemas:
  s:
    a: {default: 16, locations: [{reg: 0, min_bit: 0, n_bits: 4}]}
`},
		{"no locations", `
schemas:
  s:
    a: {default: 0}
`},
		{"unknown schema", `
schemas:
  s:
    a: {locations: [{reg: 0, min_bit: 0, n_bits: 4}]}
pages:
  - {name: p, address: 0, schema: other}
`},
		{"shared address", `
schemas:
  s:
    a: {locations: [{reg: 0, min_bit: 0, n_bits: 4}]}
pages:
  - {name: p, address: 0, schema: s}
  - {name: q, address: 0, schema: s}
`},
		{"duplicate page", `
schemas:
  s:
    a: {locations: [{reg: 0, min_bit: 0, n_bits: 4}]}
pages:
  - {name: p, address: 0, schema: s}
  - {name: P, address: 1, schema: s}
`},
		{"duplicate parameter", `
schemas:
  s:
    a: {locations: [{reg: 0, min_bit: 0, n_bits: 4}]}
    A: {locations: [{reg: 1, min_bit: 0, n_bits: 4}]}
`},
		{"direct access bit out of range", `
schemas: {}
direct_access:
  x: {reg: 0, bit: 8}
`},
		{"direct access shared bit", `
schemas: {}
direct_access:
  x: {reg: 0, bit: 1}
  y: {reg: 0, bit: 1}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.catalog))
			var e ErrCatalog
			assert.True(t, errors.As(err, &e))
		})
	}

	t.Run("malformed location", func(t *testing.T) {
		_, err := ParseCatalog([]byte(`
schemas:
  s:
    a: {locations: [{reg: 0, min_bit: 5, n_bits: 4}]}
`))
		var e ErrMalformedLocation
		assert.True(t, errors.As(err, &e))
		assert.Equal(t, "S.A", e.Parameter)
	})

	t.Run("register out of page", func(t *testing.T) {
		_, err := ParseCatalog([]byte(`
schemas:
  s:
    a: {locations: [{reg: 32, min_bit: 0, n_bits: 1}]}
`))
		var e ErrMalformedLocation
		assert.True(t, errors.As(err, &e))
	})
}

func TestBuiltinCatalogs(t *testing.T) {
	keys := BuiltinCatalogs()
	assert.Equal(t, []CatalogKey{{Type: "hgcroc", Version: "v2"}, {Type: "hgcroc", Version: "v3"}}, keys)

	c, err := LoadBuiltinCatalog(CatalogKey{Type: "HGCROC", Version: "V3"})
	assert.NoError(t, err)
	assert.Equal(t, 87, len(c.PageNames()))
	entry, ok := c.Page("GLOBAL_ANALOG_0")
	assert.True(t, ok)
	assert.Equal(t, 297, entry.Address)
	entry, ok = c.Page("CHANNEL_36")
	assert.True(t, ok)
	assert.Equal(t, 256, entry.Address)

	v2, err := LoadBuiltinCatalog(CatalogKey{Type: "hgcroc", Version: "v2"})
	assert.NoError(t, err)
	top, _ := v2.Page("TOP")
	_, ok = top.Schema.Parameter("PLL_LOCK_THRESHOLD")
	assert.False(t, ok)

	_, err = LoadBuiltinCatalog(CatalogKey{Type: "hgcroc", Version: "v9"})
	var e ErrUnknownCatalog
	assert.True(t, errors.As(err, &e))
}

func TestRegistryBuildsOnce(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	r := NewRegistry(func(key CatalogKey) (*Catalog, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return LoadBuiltinCatalog(key)
	})

	var wg sync.WaitGroup
	catalogs := make([]*Catalog, 16)
	for i := range catalogs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := r.Get("hgcroc", "v3")
			if err != nil {
				t.Error(err)
				return
			}
			catalogs[i] = c
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
	for _, c := range catalogs {
		assert.True(t, c == catalogs[0])
	}

	_, err := r.Get("HGCROC", "v3")
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRegistryConcurrentCompile(t *testing.T) {
	r := NewRegistry(nil)
	var wg sync.WaitGroup
	results := make([]RegisterSet, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := r.Compiler("hgcroc", "v3")
			if err != nil {
				t.Error(err)
				return
			}
			rs, err := c.CompileSettings(c.Defaults())
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = rs
		}(i)
	}
	wg.Wait()
	for _, rs := range results[1:] {
		assert.Equal(t, results[0], rs)
	}
}

func TestFileLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(testCatalog), 0644))

	r := NewRegistry(FileLoader(path))
	c, err := r.Get("TEST", "v1")
	assert.NoError(t, err)
	assert.Equal(t, 4, len(c.PageNames()))

	_, err = r.Get("test", "v2")
	var e ErrUnknownCatalog
	assert.True(t, errors.As(err, &e))
}
