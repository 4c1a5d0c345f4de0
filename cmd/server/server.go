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

package server

import (
	"fmt"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-roc/cmd/catalog"
	"jinr.ru/greenlab/go-roc/pkg/command"
	"jinr.ru/greenlab/go-roc/pkg/config"
)

const (
	IPOptionName   = "ip"
	PortOptionName = "port"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Manage API server",
	}
	cmd.AddCommand(NewStartCommand())
	return cmd
}

func NewStartCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return command.StartApiServer(cfg)
		},
	}
	catalog.AddFlags(cmd, cfg)
	cmd.Flags().StringVar(&cfg.IP, IPOptionName, cfg.IP, fmt.Sprintf("IP to bind. E.g. %s", config.DefaultIP))
	cmd.Flags().IntVar(&cfg.ApiPort, PortOptionName, cfg.ApiPort, "Port to bind")
	return cmd
}
