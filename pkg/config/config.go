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

package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

type CatalogConfig struct {
	Type    string `yaml:"type"`
	Version string `yaml:"version"`
	// Path to a catalog file, empty means the catalog built into the binary
	Path string `yaml:"path,omitempty"`
}

type Chip struct {
	Name      string `yaml:"name"`
	Transport string `yaml:"transport"`
	// I2C transport
	I2CBus     int    `yaml:"i2c_bus,omitempty"`
	I2CAddress uint8  `yaml:"i2c_address,omitempty"`
	// UDP transport, host:port of the readout board bridging the chip
	Address string `yaml:"address,omitempty"`
}

type Config struct {
	LogLevel string         `yaml:"log_level"`
	IP       string         `yaml:"ip"`
	ApiPort  int            `yaml:"api_port"`
	DBPath   string         `yaml:"db_path"`
	Catalog  *CatalogConfig `yaml:"catalog"`
	Chips    []*Chip        `yaml:"chips"`
	filepath string
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	return os.WriteFile(c.filepath, data, 0644)
}

// Load reads the config file on top of the current values. A missing file is not an error.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.filepath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) Path() string {
	return c.filepath
}

// SetPath changes the file used by Load and Persist
func (c *Config) SetPath(path string) {
	c.filepath = path
}

func (c *Config) GetChipByName(name string) (*Chip, error) {
	for _, chip := range c.Chips {
		if strings.EqualFold(chip.Name, name) {
			return chip, nil
		}
	}
	return nil, ErrChipNotFound{Name: name}
}

func (c *Config) Dump() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, DBFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		IP:       DefaultIP,
		ApiPort:  DefaultApiPort,
		DBPath:   DefaultDBPath(),
		Catalog: &CatalogConfig{
			Type:    DefaultCatalogType,
			Version: DefaultCatalogVersion,
		},
		Chips: []*Chip{
			{
				Name:      DefaultChipName,
				Transport: DefaultTransport,
			},
		},
		filepath: DefaultConfigPath(),
	}
}
