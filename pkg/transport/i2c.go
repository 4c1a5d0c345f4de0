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
	"github.com/platinasystems/i2c"

	"jinr.ru/greenlab/go-roc/pkg/log"
	"jinr.ru/greenlab/go-roc/pkg/roc"
)

// The chip exposes the paged space through three sub-addresses:
// low and high byte of the register address and the data byte.
const (
	I2CRegAddrLow  uint8 = 0
	I2CRegAddrHigh uint8 = 1
	I2CRegData     uint8 = 2
)

// SMBus is the part of i2c.Bus used by the transport
type SMBus interface {
	Open(index int) error
	ForceSlaveAddress(address int) error
	Do(rw i2c.RW, cmd uint8, size i2c.SMBusSize, data *i2c.SMBusData) error
	Close() error
}

// linuxBus is the i2c-dev bus of the host
type linuxBus struct {
	i2c.Bus
}

func (b *linuxBus) Close() error {
	b.Bus.Close()
	return nil
}

type I2CTransport struct {
	busIndex int
	address  uint8
	newBus   func() SMBus
}

func NewI2CTransport(busIndex int, address uint8) *I2CTransport {
	return &I2CTransport{
		busIndex: busIndex,
		address:  address,
		newBus:   func() SMBus { return &linuxBus{} },
	}
}

func (t *I2CTransport) open() (SMBus, error) {
	bus := t.newBus()
	if err := bus.Open(t.busIndex); err != nil {
		return nil, ErrTransport{What: "open i2c bus: " + err.Error()}
	}
	if err := bus.ForceSlaveAddress(int(t.address)); err != nil {
		bus.Close()
		return nil, ErrTransport{What: "set i2c address: " + err.Error()}
	}
	return bus, nil
}

func writeByte(bus SMBus, cmd, value uint8) error {
	var data i2c.SMBusData
	data[0] = value
	return bus.Do(i2c.Write, cmd, i2c.ByteData, &data)
}

func selectRegister(bus SMBus, page, reg int) error {
	addr := RegisterAddress(page, reg)
	if err := writeByte(bus, I2CRegAddrLow, uint8(addr)); err != nil {
		return err
	}
	return writeByte(bus, I2CRegAddrHigh, uint8(addr>>8))
}

func (t *I2CTransport) Write(registers roc.RegisterSet) error {
	i2c.Lock.Lock()
	defer i2c.Lock.Unlock()

	bus, err := t.open()
	if err != nil {
		return err
	}
	defer bus.Close()

	for _, row := range registers.Rows() {
		if err := checkPage(row.Page); err != nil {
			return err
		}
		if err := selectRegister(bus, row.Page, row.Register); err != nil {
			return ErrTransport{What: err.Error()}
		}
		if err := writeByte(bus, I2CRegData, row.Value); err != nil {
			return ErrTransport{What: err.Error()}
		}
	}
	log.Debug("Wrote %d registers over i2c bus %d address 0x%02x", registers.Len(), t.busIndex, t.address)
	return nil
}

// Read stops at the first failed transfer and returns the registers read so far with the error
func (t *I2CTransport) Read(shape roc.RegisterSet) (roc.RegisterSet, error) {
	i2c.Lock.Lock()
	defer i2c.Lock.Unlock()

	bus, err := t.open()
	if err != nil {
		return nil, err
	}
	defer bus.Close()

	registers := roc.NewRegisterSet()
	for _, row := range shape.Rows() {
		if err := checkPage(row.Page); err != nil {
			return registers, err
		}
		if err := selectRegister(bus, row.Page, row.Register); err != nil {
			return registers, ErrTransport{What: err.Error()}
		}
		var data i2c.SMBusData
		if err := bus.Do(i2c.Read, I2CRegData, i2c.ByteData, &data); err != nil {
			return registers, ErrTransport{What: err.Error()}
		}
		registers.Set(row.Page, row.Register, data[0])
	}
	return registers, nil
}

func (t *I2CTransport) Close() error {
	return nil
}
