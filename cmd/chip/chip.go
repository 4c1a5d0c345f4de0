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

package chip

import (
	"io"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-roc/pkg/command"
	"jinr.ru/greenlab/go-roc/pkg/config"
	"jinr.ru/greenlab/go-roc/pkg/dump"
	"jinr.ru/greenlab/go-roc/pkg/log"
)

const (
	ChipOptionName     = "chip"
	FileOptionName     = "file"
	DefaultsOptionName = "defaults"
	PageOptionName     = "page"
	CarefulOptionName  = "careful"
	OutputOptionName   = "output"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chip",
		Short: "Write and read chip settings through API server",
	}
	cmd.AddCommand(NewWriteCommand())
	cmd.AddCommand(NewReadCommand())
	cmd.AddCommand(NewRegistersCommand())
	return cmd
}

func NewWriteCommand() *cobra.Command {
	var chip string
	var files []string
	var defaults bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write settings files to chip",
		RunE: func(cmd *cobra.Command, args []string) error {
			layers, err := command.LoadSettingsLayers(files)
			if err != nil {
				return err
			}
			apiClient := command.NewApiClient(cfg)
			registers, err := apiClient.ChipWrite(chip, layers, defaults)
			if err != nil {
				return err
			}
			log.Info("Written %d registers to %s", registers.Len(), chip)
			return nil
		},
	}
	cmd.Flags().StringVarP(&chip, ChipOptionName, "c", config.DefaultChipName, "Chip name")
	cmd.Flags().StringArrayVarP(&files, FileOptionName, "f", nil, "Settings YAML file. Later files override earlier ones")
	cmd.Flags().BoolVar(&defaults, DefaultsOptionName, false, "Put settings on top of the defaults")
	return cmd
}

func NewReadCommand() *cobra.Command {
	var chip, page, output string
	var careful bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read chip settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			result, err := apiClient.ChipRead(chip, page, careful)
			if err != nil {
				return err
			}
			for _, w := range result.Warnings {
				log.Warning("%s", w)
			}
			return command.WriteOutput(output, cmd.OutOrStdout(), func(w io.Writer) error {
				return dump.WriteSettings(w, result.Settings)
			})
		},
	}
	cmd.Flags().StringVarP(&chip, ChipOptionName, "c", config.DefaultChipName, "Chip name")
	cmd.Flags().StringVar(&page, PageOptionName, "*", "Page pattern")
	cmd.Flags().BoolVar(&careful, CarefulOptionName, false, "Skip parameters with any missing register")
	cmd.Flags().StringVarP(&output, OutputOptionName, "o", "", "Output YAML file. Defaults to stdout")
	return cmd
}

func NewRegistersCommand() *cobra.Command {
	var chip, page, output string
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "registers",
		Short: "Read raw chip registers",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			registers, err := apiClient.ChipRegisters(chip, page)
			if err != nil {
				return err
			}
			return command.WriteOutput(output, cmd.OutOrStdout(), func(w io.Writer) error {
				return dump.WriteRegisters(w, registers)
			})
		},
	}
	cmd.Flags().StringVarP(&chip, ChipOptionName, "c", config.DefaultChipName, "Chip name")
	cmd.Flags().StringVar(&page, PageOptionName, "*", "Page pattern")
	cmd.Flags().StringVarP(&output, OutputOptionName, "o", "", "Output CSV file. Defaults to stdout")
	return cmd
}
