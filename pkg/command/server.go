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

package command

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"jinr.ru/greenlab/go-roc/pkg/chip"
	"jinr.ru/greenlab/go-roc/pkg/config"
	"jinr.ru/greenlab/go-roc/pkg/log"
	"jinr.ru/greenlab/go-roc/pkg/roc"
	"jinr.ru/greenlab/go-roc/pkg/srv"
	"jinr.ru/greenlab/go-roc/pkg/state"
)

// NewCompiler returns the compiler for the catalog selected in the config.
// A catalog file path takes precedence over the builtin catalogs.
func NewCompiler(cfg *config.Config) (*roc.Compiler, error) {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = &config.CatalogConfig{
			Type:    config.DefaultCatalogType,
			Version: config.DefaultCatalogVersion,
		}
	}
	var loader roc.Loader
	if catalog.Path != "" {
		loader = roc.FileLoader(catalog.Path)
	}
	return roc.NewRegistry(loader).Compiler(catalog.Type, catalog.Version)
}

// NewChips opens the register state db and creates all chips listed in the config
func NewChips(ctx context.Context, cfg *config.Config, compiler *roc.Compiler) ([]*chip.Chip, *state.RegState, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, nil, err
	}
	var names []string
	for _, c := range cfg.Chips {
		names = append(names, c.Name)
	}
	store, err := state.NewRegState(ctx, cfg.DBPath, names)
	if err != nil {
		return nil, nil, err
	}
	var chips []*chip.Chip
	for _, c := range cfg.Chips {
		ch, err := chip.NewFromConfig(c, store, compiler)
		if err != nil {
			for _, opened := range chips {
				opened.Close()
			}
			store.Close()
			return nil, nil, err
		}
		chips = append(chips, ch)
	}
	return chips, store, nil
}

// StartApiServer runs the API server until interrupted
func StartApiServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	compiler, err := NewCompiler(cfg)
	if err != nil {
		return err
	}
	chips, store, err := NewChips(ctx, cfg, compiler)
	if err != nil {
		return err
	}
	defer store.Close()
	defer func() {
		for _, c := range chips {
			if err := c.Close(); err != nil {
				log.Error("Error while closing chip %s: %s", c.Name, err)
			}
		}
	}()

	s, err := srv.NewApiServer(ctx, cfg, compiler, chips)
	if err != nil {
		return err
	}
	return s.Run()
}
