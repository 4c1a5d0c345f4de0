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
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Settings maps a page pattern to parameter values: page -> parameter -> value.
// Keys are stored upper-cased.
type Settings map[string]map[string]uint64

func NewSettings() Settings {
	return Settings{}
}

func (s Settings) Set(page, param string, value uint64) {
	page, param = normalize(page), normalize(param)
	params, ok := s[page]
	if !ok {
		params = make(map[string]uint64)
		s[page] = params
	}
	params[param] = value
}

func (s Settings) Get(page, param string) (uint64, bool) {
	v, ok := s[normalize(page)][normalize(param)]
	return v, ok
}

// Overlay puts every value of other on top of s
func (s Settings) Overlay(other Settings) {
	for _, page := range sortedKeys(other) {
		for _, param := range sortedKeys(other[page]) {
			s.Set(page, param, other[page][param])
		}
	}
}

func (s Settings) Clone() Settings {
	clone := NewSettings()
	clone.Overlay(s)
	return clone
}

// Len is the number of page/parameter pairs
func (s Settings) Len() int {
	n := 0
	for _, params := range s {
		n += len(params)
	}
	return n
}

// Pages returns the sorted page keys
func (s Settings) Pages() []string {
	return sortedKeys(s)
}

// ParseSettings reads YAML of the form page: {parameter: value}. Page keys may end with '*'.
func ParseSettings(data []byte) (Settings, error) {
	raw := map[string]map[string]uint64{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("could not parse settings: %w", err)
	}
	s := NewSettings()
	s.Overlay(raw)
	return s, nil
}

// LoadSettingsFile reads settings from a YAML file
func LoadSettingsFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := ParseSettings(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
