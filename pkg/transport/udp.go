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
	"net"
	"sync"
	"time"

	"jinr.ru/greenlab/go-roc/pkg/layers"
	"jinr.ru/greenlab/go-roc/pkg/log"
	"jinr.ru/greenlab/go-roc/pkg/roc"
)

const (
	DefaultTimeout = time.Second
)

// UDPTransport talks to a readout board that bridges MLink frames to the chip
type UDPTransport struct {
	mu      sync.Mutex
	conn    *net.UDPConn
	timeout time.Duration
	seq     uint16
}

func NewUDPTransport(address string, timeout time.Duration) (*UDPTransport, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, ErrTransport{What: err.Error()}
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, ErrTransport{What: err.Error()}
	}
	return &UDPTransport{conn: conn, timeout: timeout}, nil
}

func (t *UDPTransport) nextSeq() uint16 {
	seq := t.seq
	t.seq++
	return seq
}

func opsFromRegisters(registers roc.RegisterSet, read bool) ([]layers.RocOp, error) {
	ops := make([]layers.RocOp, 0, registers.Len())
	for _, row := range registers.Rows() {
		if err := checkPage(row.Page); err != nil {
			return nil, err
		}
		ops = append(ops, layers.RocOp{
			Read:     read,
			Page:     uint16(row.Page),
			Register: uint8(row.Register),
			Value:    row.Value,
		})
	}
	return ops, nil
}

// exchange sends one request frame and waits for the response with the same sequence number.
// Stale responses of earlier requests are dropped.
func (t *UDPTransport) exchange(ops []layers.RocOp) ([]layers.RocOp, error) {
	seq := t.nextSeq()
	data, err := layers.RocOpsToBytes(ops, seq, layers.MLinkTypeRocRequest)
	if err != nil {
		return nil, err
	}
	if _, err := t.conn.Write(data); err != nil {
		return nil, ErrTransport{What: err.Error()}
	}
	if err := t.conn.SetReadDeadline(time.Now().Add(t.timeout)); err != nil {
		return nil, ErrTransport{What: err.Error()}
	}
	buf := make([]byte, layers.MLinkMaxFrameSize)
	for {
		n, err := t.conn.Read(buf)
		if err != nil {
			return nil, ErrTransport{What: err.Error()}
		}
		ml, rl, err := layers.DecodeRocFrame(buf[:n])
		if err != nil {
			log.Warning("Dropping bad frame: %s", err)
			continue
		}
		if ml.Type != layers.MLinkTypeRocResponse || ml.Seq != seq {
			log.Debug("Dropping frame type: %s seq: %d, waiting for seq: %d", ml.Type, ml.Seq, seq)
			continue
		}
		return rl.Ops, nil
	}
}

func chunks(ops []layers.RocOp) [][]layers.RocOp {
	var result [][]layers.RocOp
	for len(ops) > layers.RocMaxOps {
		result = append(result, ops[:layers.RocMaxOps])
		ops = ops[layers.RocMaxOps:]
	}
	if len(ops) > 0 {
		result = append(result, ops)
	}
	return result
}

func (t *UDPTransport) Write(registers roc.RegisterSet) error {
	ops, err := opsFromRegisters(registers, false)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, chunk := range chunks(ops) {
		if _, err := t.exchange(chunk); err != nil {
			return err
		}
	}
	return nil
}

// Read returns only the registers present in the responses
func (t *UDPTransport) Read(shape roc.RegisterSet) (roc.RegisterSet, error) {
	ops, err := opsFromRegisters(shape, true)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	registers := roc.NewRegisterSet()
	for _, chunk := range chunks(ops) {
		resp, err := t.exchange(chunk)
		if err != nil {
			return registers, err
		}
		for _, op := range resp {
			if shape.Has(int(op.Page), int(op.Register)) {
				registers.Set(int(op.Page), int(op.Register), op.Value)
			}
		}
	}
	return registers, nil
}

func (t *UDPTransport) Close() error {
	return t.conn.Close()
}
