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
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
)

//go:embed catalogs/*.yaml
var builtinCatalogs embed.FS

// CatalogKey identifies one catalog
type CatalogKey struct {
	Type    string
	Version string
}

func (k CatalogKey) String() string {
	return fmt.Sprintf("%s %s", k.Type, k.Version)
}

func (k CatalogKey) normalized() CatalogKey {
	return CatalogKey{
		Type:    strings.ToLower(strings.TrimSpace(k.Type)),
		Version: strings.ToLower(strings.TrimSpace(k.Version)),
	}
}

// Loader builds the catalog for a key. It is called at most once per key by a Registry.
type Loader func(key CatalogKey) (*Catalog, error)

// LoadBuiltinCatalog loads one of the catalogs compiled into the binary
func LoadBuiltinCatalog(key CatalogKey) (*Catalog, error) {
	key = key.normalized()
	data, err := builtinCatalogs.ReadFile(path.Join("catalogs", fmt.Sprintf("%s_%s.yaml", key.Type, key.Version)))
	if err != nil {
		return nil, ErrUnknownCatalog{Type: key.Type, Version: key.Version}
	}
	return ParseCatalog(data)
}

// BuiltinCatalogs lists the keys of the catalogs compiled into the binary
func BuiltinCatalogs() []CatalogKey {
	var keys []CatalogKey
	entries, _ := fs.ReadDir(builtinCatalogs, "catalogs")
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".yaml")
		i := strings.LastIndex(name, "_")
		if i < 0 {
			continue
		}
		keys = append(keys, CatalogKey{Type: name[:i], Version: name[i+1:]})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// FileLoader loads the catalog from a file, which must declare the requested type and version
func FileLoader(filePath string) Loader {
	return func(key CatalogKey) (*Catalog, error) {
		c, err := LoadCatalogFile(filePath)
		if err != nil {
			return nil, err
		}
		if (CatalogKey{Type: c.Type, Version: c.Version}).normalized() != key.normalized() {
			return nil, ErrUnknownCatalog{Type: key.Type, Version: key.Version}
		}
		return c, nil
	}
}

// Registry caches catalogs so each one is built once and then shared read-only
type Registry struct {
	mu       sync.Mutex
	loader   Loader
	catalogs map[CatalogKey]*Catalog
}

// NewRegistry creates a registry. A nil loader means the builtin catalogs.
func NewRegistry(loader Loader) *Registry {
	if loader == nil {
		loader = LoadBuiltinCatalog
	}
	return &Registry{
		loader:   loader,
		catalogs: make(map[CatalogKey]*Catalog),
	}
}

// Get returns the catalog for a chip type and version, building it on first use
func (r *Registry) Get(chipType, version string) (*Catalog, error) {
	key := CatalogKey{Type: chipType, Version: version}.normalized()
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.catalogs[key]; ok {
		return c, nil
	}
	c, err := r.loader(key)
	if err != nil {
		return nil, err
	}
	r.catalogs[key] = c
	return c, nil
}

// Compiler returns a compiler bound to the cached catalog
func (r *Registry) Compiler(chipType, version string) (*Compiler, error) {
	c, err := r.Get(chipType, version)
	if err != nil {
		return nil, err
	}
	return NewCompiler(c), nil
}
