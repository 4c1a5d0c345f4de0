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

package compile

import (
	"io"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-roc/cmd/catalog"
	"jinr.ru/greenlab/go-roc/pkg/command"
	"jinr.ru/greenlab/go-roc/pkg/config"
	"jinr.ru/greenlab/go-roc/pkg/dump"
	"jinr.ru/greenlab/go-roc/pkg/log"
)

const (
	FileOptionName     = "file"
	DefaultsOptionName = "defaults"
	OutputOptionName   = "output"
	CarefulOptionName  = "careful"
	PageOptionName     = "page"
)

// NewCompileCommand compiles settings files into a register dump
func NewCompileCommand() *cobra.Command {
	var files []string
	var defaults bool
	var output string
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile settings files into registers",
		Example: `
Compile two settings files on top of the defaults
# go-roc compile -f base.yaml -f run.yaml --defaults -o registers.csv
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			compiler, err := command.NewCompiler(cfg)
			if err != nil {
				return err
			}
			registers, err := compiler.CompileFiles(files, defaults)
			if err != nil {
				return err
			}
			log.Debug("Compiled %d registers", registers.Len())
			return command.WriteOutput(output, cmd.OutOrStdout(), func(w io.Writer) error {
				return dump.WriteRegisters(w, registers)
			})
		},
	}
	catalog.AddFlags(cmd, cfg)
	cmd.Flags().StringArrayVarP(&files, FileOptionName, "f", nil, "Settings YAML file. Later files override earlier ones")
	cmd.Flags().BoolVar(&defaults, DefaultsOptionName, false, "Put settings on top of the defaults")
	cmd.Flags().StringVarP(&output, OutputOptionName, "o", "", "Output CSV file. Defaults to stdout")
	return cmd
}

// NewDecompileCommand turns a register dump back into settings
func NewDecompileCommand() *cobra.Command {
	var file, output, page string
	var careful bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "decompile",
		Short: "Decompile registers into settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			compiler, err := command.NewCompiler(cfg)
			if err != nil {
				return err
			}
			registers, err := command.ReadRegistersFile(file)
			if err != nil {
				return err
			}
			settings, warnings, err := compiler.DecompilePages(page, registers, careful)
			if err != nil {
				return err
			}
			if len(warnings) > 0 {
				log.Info("Decompiled with %d warnings", len(warnings))
			}
			return command.WriteOutput(output, cmd.OutOrStdout(), func(w io.Writer) error {
				return dump.WriteSettings(w, settings)
			})
		},
	}
	catalog.AddFlags(cmd, cfg)
	cmd.Flags().StringVarP(&file, FileOptionName, "f", "", "Register CSV file")
	cmd.MarkFlagRequired(FileOptionName)
	cmd.Flags().StringVar(&page, PageOptionName, "*", "Page pattern to decompile")
	cmd.Flags().BoolVar(&careful, CarefulOptionName, false, "Skip parameters with any missing register")
	cmd.Flags().StringVarP(&output, OutputOptionName, "o", "", "Output YAML file. Defaults to stdout")
	return cmd
}
