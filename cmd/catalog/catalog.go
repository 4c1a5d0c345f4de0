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

package catalog

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-roc/pkg/command"
	"jinr.ru/greenlab/go-roc/pkg/config"
	"jinr.ru/greenlab/go-roc/pkg/dump"
)

const (
	TypeOptionName    = "catalog-type"
	VersionOptionName = "catalog-version"
	FileOptionName    = "catalog-file"
	OutputOptionName  = "output"
)

// AddFlags binds catalog selection flags to the catalog section of cfg
func AddFlags(cmd *cobra.Command, cfg *config.Config) {
	if cfg.Catalog == nil {
		cfg.Catalog = &config.CatalogConfig{
			Type:    config.DefaultCatalogType,
			Version: config.DefaultCatalogVersion,
		}
	}
	cmd.Flags().StringVar(&cfg.Catalog.Type, TypeOptionName, cfg.Catalog.Type, "Chip type")
	cmd.Flags().StringVar(&cfg.Catalog.Version, VersionOptionName, cfg.Catalog.Version, "Chip version")
	cmd.Flags().StringVar(&cfg.Catalog.Path, FileOptionName, cfg.Catalog.Path, "Catalog YAML file. Overrides type and version")
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect register catalog",
	}
	cmd.AddCommand(NewPagesCommand())
	cmd.AddCommand(NewParamsCommand())
	cmd.AddCommand(NewDefaultsCommand())
	return cmd
}

func NewPagesCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "pages [PATTERN]",
		Short: "List pages matching pattern",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			compiler, err := command.NewCompiler(cfg)
			if err != nil {
				return err
			}
			pattern := "*"
			if len(args) > 0 {
				pattern = args[0]
			}
			pages, err := compiler.Pages(pattern)
			if err != nil {
				return err
			}
			for _, name := range pages {
				entry, _ := compiler.Catalog().Page(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %4d %s\n", entry.Name, entry.Address, entry.Schema.Name)
			}
			return nil
		},
	}
	AddFlags(cmd, cfg)
	return cmd
}

func NewParamsCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "params PAGE",
		Short: "List parameters of a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			compiler, err := command.NewCompiler(cfg)
			if err != nil {
				return err
			}
			names, err := compiler.Parameters(args[0])
			if err != nil {
				return err
			}
			for _, name := range names {
				p, err := compiler.Parameter(args[0], name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s width: %2d default: %d\n", name, p.Width(), p.Default)
			}
			return nil
		},
	}
	AddFlags(cmd, cfg)
	return cmd
}

func NewDefaultsCommand() *cobra.Command {
	var output string
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Print default settings of all pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			compiler, err := command.NewCompiler(cfg)
			if err != nil {
				return err
			}
			return command.WriteOutput(output, cmd.OutOrStdout(), func(w io.Writer) error {
				return dump.WriteSettings(w, compiler.Defaults())
			})
		},
	}
	AddFlags(cmd, cfg)
	cmd.Flags().StringVarP(&output, OutputOptionName, "o", "", "Output file. Defaults to stdout")
	return cmd
}
