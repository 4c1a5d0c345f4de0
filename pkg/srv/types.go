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

package srv

import (
	"jinr.ru/greenlab/go-roc/pkg/roc"
)

// CompileRequest is the body of compile and chip write requests
type CompileRequest struct {
	// Layers are expanded and overlaid in order, e.g. one per settings file
	Layers   []roc.Settings `json:"layers,omitempty"`
	Settings roc.Settings   `json:"settings,omitempty"`
	// Defaults puts settings on top of the defaults of every parameter
	Defaults bool           `json:"defaults"`
}

// AllLayers returns the layers followed by the settings, if any
func (r *CompileRequest) AllLayers() []roc.Settings {
	layers := append([]roc.Settings(nil), r.Layers...)
	if len(r.Settings) > 0 {
		layers = append(layers, r.Settings)
	}
	return layers
}

type DecompileRequest struct {
	Registers []roc.RegisterRow `json:"registers"`
	Careful   bool              `json:"careful"`
}

type DecompileResponse struct {
	Settings roc.Settings  `json:"settings"`
	Warnings []roc.Warning `json:"warnings"`
}

type ParameterInfo struct {
	Name      string                 `json:"name"`
	Default   uint64                 `json:"default"`
	Width     int                    `json:"width"`
	Locations []roc.RegisterLocation `json:"locations"`
}

type PageInfo struct {
	Name       string           `json:"name"`
	Address    int              `json:"address"`
	Schema     string           `json:"schema"`
	Parameters []*ParameterInfo `json:"parameters,omitempty"`
}

type CatalogInfo struct {
	Type         string      `json:"type"`
	Version      string      `json:"version"`
	Pages        []*PageInfo `json:"pages"`
	DirectAccess []string    `json:"direct_access"`
}
