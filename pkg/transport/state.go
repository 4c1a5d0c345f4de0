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
	"jinr.ru/greenlab/go-roc/pkg/roc"
	"jinr.ru/greenlab/go-roc/pkg/state"
)

// StateTransport emulates a chip on top of the register database.
// Registers never written read back as absent.
type StateTransport struct {
	chip  string
	store *state.RegState
}

func NewStateTransport(chip string, store *state.RegState) *StateTransport {
	return &StateTransport{chip: chip, store: store}
}

func (t *StateTransport) Write(registers roc.RegisterSet) error {
	if err := checkPages(registers); err != nil {
		return err
	}
	return t.store.WriteRegisters(t.chip, registers)
}

func (t *StateTransport) Read(shape roc.RegisterSet) (roc.RegisterSet, error) {
	if err := checkPages(shape); err != nil {
		return nil, err
	}
	return t.store.ReadRegisters(t.chip, shape)
}

// Close does nothing, the store is shared between chips
func (t *StateTransport) Close() error {
	return nil
}
