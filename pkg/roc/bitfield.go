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

const (
	RegisterBits = 8
	// MaxRegister is the highest register offset inside one page
	MaxRegister = 31
)

// RegisterLocation is the bit range one chunk of a parameter occupies inside a page
type RegisterLocation struct {
	Register int `json:"reg"`
	MinBit   int `json:"min_bit"`
	NBits    int `json:"n_bits"`
}

func (l RegisterLocation) Mask() uint8 {
	return bitMask(l.NBits)
}

func bitMask(nBits int) uint8 {
	return uint8(uint16(1)<<nBits - 1)
}

// Valid checks that the bit range stays inside one register of a page
func (l RegisterLocation) Valid() bool {
	return l.Register >= 0 && l.Register <= MaxRegister &&
		l.MinBit >= 0 && l.NBits >= 1 &&
		l.MinBit+l.NBits <= RegisterBits
}

// Pack clears the bits of the range in before and puts the chunk there.
func Pack(before uint8, minBit, nBits int, chunk uint64) uint8 {
	mask := bitMask(nBits)
	before &^= mask << minBit
	return before | (uint8(chunk)&mask)<<minBit
}

// Unpack extracts the chunk stored in the bit range.
func Unpack(b uint8, minBit, nBits int) uint64 {
	return uint64((b >> minBit) & bitMask(nBits))
}
