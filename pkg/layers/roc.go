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

package layers

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// RocLayerNum identifies the layer
	RocLayerNum = 1997
	// RocOpSize every op is one little endian word
	RocOpSize = 4
	// RocMaxOps is how many ops fit into one MLink frame
	RocMaxOps = MLinkMaxPayloadSize / RocOpSize
	// RocMaxPage page addresses have 15 bits
	RocMaxPage = 0x7fff
)

// RocOp reads or writes one register of a chip page.
// The word is read flag (bit 31), page (bits 16-30), register (bits 8-15), value (bits 0-7).
type RocOp struct {
	Read     bool
	Page     uint16
	Register uint8
	// Value is ignored in read requests and filled in responses
	Value uint8
}

func (op RocOp) Word() uint32 {
	word := (uint32(op.Page)&RocMaxPage)<<16 | uint32(op.Register)<<8 | uint32(op.Value)
	if op.Read {
		word |= 0x80000000
	}
	return word
}

func RocOpFromWord(word uint32) RocOp {
	return RocOp{
		Read:     word&0x80000000 != 0,
		Page:     uint16((word >> 16) & RocMaxPage),
		Register: uint8(word >> 8),
		Value:    uint8(word),
	}
}

func (op RocOp) String() string {
	if op.Read {
		return fmt.Sprintf("read page: %d reg: %d", op.Page, op.Register)
	}
	return fmt.Sprintf("write page: %d reg: %d value: 0x%02x", op.Page, op.Register, op.Value)
}

type RocLayer struct {
	layers.BaseLayer
	Ops []RocOp
}

var RocLayerType = gopacket.RegisterLayerType(RocLayerNum,
	gopacket.LayerTypeMetadata{Name: "RocLayerType", Decoder: gopacket.DecodeFunc(DecodeRocLayer)})

// LayerType returns the type of the ROC layer in the layer catalog
func (roc *RocLayer) LayerType() gopacket.LayerType {
	return RocLayerType
}

// Serialize writes the ops into buf, which must hold len(Ops) words
func (roc *RocLayer) Serialize(buf []byte) {
	for i, op := range roc.Ops {
		binary.LittleEndian.PutUint32(buf[i*RocOpSize:(i+1)*RocOpSize], op.Word())
	}
}

// SerializeTo serializes the ops into bytes and writes the bytes to the SerializeBuffer
func (roc *RocLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.AppendBytes(len(roc.Ops) * RocOpSize)
	if err != nil {
		return err
	}
	roc.Serialize(bytes)
	return nil
}

func (roc *RocLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data)%RocOpSize != 0 {
		df.SetTruncated()
		return ErrFrame{What: fmt.Sprintf("roc payload of %d bytes is not whole words", len(data))}
	}
	roc.BaseLayer = layers.BaseLayer{
		Contents: data[:],
		Payload:  []byte{},
	}
	roc.Ops = make([]RocOp, 0, len(data)/RocOpSize)
	for offset := 0; offset < len(data); offset += RocOpSize {
		roc.Ops = append(roc.Ops, RocOpFromWord(binary.LittleEndian.Uint32(data[offset:offset+RocOpSize])))
	}
	return nil
}

func (roc *RocLayer) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypeZero
}

func DecodeRocLayer(data []byte, p gopacket.PacketBuilder) error {
	roc := &RocLayer{}
	err := roc.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(roc)
	return nil
}

// RocOpsToBytes builds one MLink frame of the given type carrying ops
func RocOpsToBytes(ops []RocOp, seq uint16, mlType MLinkType) ([]byte, error) {
	if len(ops) > RocMaxOps {
		return nil, ErrFrame{What: fmt.Sprintf("%d ops do not fit one frame, max %d", len(ops), RocMaxOps)}
	}
	ml := &MLinkLayer{}
	ml.Type = mlType
	ml.Sync = MLinkSync
	// 3 words for MLink header + 1 word CRC + 1 word per op
	ml.Len = uint16(4 + len(ops))
	ml.Seq = seq
	ml.Src = MLinkHostAddr
	ml.Dst = MLinkDeviceAddr
	if mlType == MLinkTypeRocResponse {
		ml.Src, ml.Dst = ml.Dst, ml.Src
	}

	roc := &RocLayer{Ops: ops}
	if mlType == MLinkTypeRocRequest {
		mlHeaderBytes := make([]byte, MLinkHeaderSize)
		ml.SerializeHeader(mlHeaderBytes)
		rocBytes := make([]byte, len(ops)*RocOpSize)
		roc.Serialize(rocBytes)
		ml.Crc = crc32.ChecksumIEEE(append(mlHeaderBytes, rocBytes...))
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{}
	err := gopacket.SerializeLayers(buf, opts, ml, roc)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRocFrame decodes an MLink frame carrying ROC ops
func DecodeRocFrame(data []byte) (*MLinkLayer, *RocLayer, error) {
	packet := gopacket.NewPacket(data, MLinkLayerType, gopacket.Default)
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		return nil, nil, errLayer.Error()
	}
	mlLayer, ok := packet.Layer(MLinkLayerType).(*MLinkLayer)
	if !ok {
		return nil, nil, ErrFrame{What: "no mlink layer"}
	}
	rocLayer, ok := packet.Layer(RocLayerType).(*RocLayer)
	if !ok {
		return nil, nil, ErrFrame{What: fmt.Sprintf("unexpected mlink type %s", mlLayer.Type)}
	}
	return mlLayer, rocLayer, nil
}
