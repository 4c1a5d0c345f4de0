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

package transport

import (
	"strings"

	"jinr.ru/greenlab/go-roc/pkg/config"
	"jinr.ru/greenlab/go-roc/pkg/roc"
	"jinr.ru/greenlab/go-roc/pkg/state"
)

const (
	TransportState = "state"
	TransportI2C   = "i2c"
	TransportUDP   = "udp"
	// MaxPage is the highest page reachable with a 16 bit register address
	MaxPage = 0xffff >> 5
)

// Transport moves register images to and from a chip
type Transport interface {
	// Write programs every register of registers
	Write(registers roc.RegisterSet) error
	// Read returns the values of the registers in shape. Registers the chip
	// did not answer for are left out, so the result may be partial.
	Read(shape roc.RegisterSet) (roc.RegisterSet, error)
	Close() error
}

// New creates the transport configured for a chip. The state store is used
// by the emulated transport and may be nil for the others.
func New(chip *config.Chip, store *state.RegState) (Transport, error) {
	switch strings.ToLower(chip.Transport) {
	case TransportState, "":
		if store == nil {
			return nil, ErrTransport{What: "state transport needs a register database"}
		}
		return NewStateTransport(chip.Name, store), nil
	case TransportI2C:
		return NewI2CTransport(chip.I2CBus, chip.I2CAddress), nil
	case TransportUDP:
		return NewUDPTransport(chip.Address, DefaultTimeout)
	default:
		return nil, ErrUnknownTransport{Name: chip.Transport}
	}
}

// RegisterAddress is the flat 16 bit address of a register
func RegisterAddress(page, reg int) uint16 {
	return uint16(page<<5 | reg&roc.MaxRegister)
}

func checkPage(page int) error {
	if page < 0 || page > MaxPage {
		return ErrTransport{What: "page address out of range"}
	}
	return nil
}

func checkPages(registers roc.RegisterSet) error {
	for _, page := range registers.Pages() {
		if err := checkPage(page); err != nil {
			return err
		}
	}
	return nil
}
