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
	"io"
	"os"

	"jinr.ru/greenlab/go-roc/pkg/dump"
	"jinr.ru/greenlab/go-roc/pkg/roc"
)

// WriteOutput calls write with the file at path or with stdout when path is empty
func WriteOutput(path string, stdout io.Writer, write func(w io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadRegistersFile reads a register dump written by dump.WriteRegisters
func ReadRegistersFile(path string) (roc.RegisterSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dump.ReadRegisters(f)
}

// LoadSettingsLayers reads settings files, one layer per file in the given order
func LoadSettingsLayers(files []string) ([]roc.Settings, error) {
	var layers []roc.Settings
	for _, file := range files {
		s, err := roc.LoadSettingsFile(file)
		if err != nil {
			return nil, err
		}
		layers = append(layers, s)
	}
	return layers, nil
}
