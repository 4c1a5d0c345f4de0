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
	"sync"

	"jinr.ru/greenlab/go-roc/pkg/config"
	"jinr.ru/greenlab/go-roc/pkg/log"
	"jinr.ru/greenlab/go-roc/pkg/roc"
	"jinr.ru/greenlab/go-roc/pkg/state"
	"jinr.ru/greenlab/go-roc/pkg/transport"
)

// Chip programs and reads back one read-out chip by parameter names
type Chip struct {
	Name      string
	Transport transport.Transport
	Compiler  *roc.Compiler

	// mu serializes read-modify-write cycles on the chip
	mu sync.Mutex
}

func New(name string, t transport.Transport, compiler *roc.Compiler) *Chip {
	return &Chip{
		Name:      name,
		Transport: t,
		Compiler:  compiler,
	}
}

// NewFromConfig opens the transport configured for the chip
func NewFromConfig(cfg *config.Chip, store *state.RegState, compiler *roc.Compiler) (*Chip, error) {
	t, err := transport.New(cfg, store)
	if err != nil {
		return nil, err
	}
	return New(cfg.Name, t, compiler), nil
}

// Apply compiles settings and writes them to the chip.
//
// With prependDefaults every register of the chip is written from the defaults
// overlaid with settings. Otherwise only the touched registers are written: they are
// read back first, so bits of parameters not in settings keep their hardware value.
func (c *Chip) Apply(settings roc.Settings, prependDefaults bool) (roc.RegisterSet, error) {
	return c.ApplyLayers([]roc.Settings{settings}, prependDefaults)
}

// ApplyLayers is Apply for settings layered in order, e.g. one layer per settings file
func (c *Chip) ApplyLayers(layers []roc.Settings, prependDefaults bool) (roc.RegisterSet, error) {
	settings, err := c.Compiler.Layer(layers, prependDefaults)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var registers roc.RegisterSet
	if prependDefaults {
		registers, err = c.Compiler.CompileSettings(settings)
		if err != nil {
			return nil, err
		}
	} else {
		shape, err := c.Compiler.CompileSettings(settings)
		if err != nil {
			return nil, err
		}
		registers, err = c.Transport.Read(shape)
		if err != nil {
			return nil, err
		}
		if missing := shape.Len() - registers.Len(); missing > 0 {
			log.Warning("Chip %s: %d registers could not be read back, their other bits are written as 0", c.Name, missing)
		}
		if err := c.Compiler.CompileOnto(settings, registers); err != nil {
			return nil, err
		}
	}

	log.Info("Chip %s: writing %d registers", c.Name, registers.Len())
	if err := c.Transport.Write(registers); err != nil {
		return nil, err
	}
	return registers, nil
}

// ReadRegisters reads every register used by the pages selected by pattern
func (c *Chip) ReadRegisters(pattern string) (roc.RegisterSet, error) {
	shape, err := c.Compiler.GetRegisters(pattern)
	if err != nil {
		return nil, err
	}
	return c.Transport.Read(shape)
}

// Read reads the pages selected by pattern and decompiles them
func (c *Chip) Read(pattern string, beCareful bool) (roc.Settings, []roc.Warning, error) {
	registers, err := c.ReadRegisters(pattern)
	if err != nil {
		return nil, nil, err
	}
	return c.Compiler.DecompilePages(pattern, registers, beCareful)
}

func (c *Chip) Close() error {
	return c.Transport.Close()
}
