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

package state

import (
	"context"
	"encoding/binary"

	"go.etcd.io/bbolt"

	"jinr.ru/greenlab/go-roc/pkg/log"
	"jinr.ru/greenlab/go-roc/pkg/roc"
)

const (
	BucketNamePrefix = "roc_"
)

// RegState keeps the last known register image of every chip in a bbolt database
type RegState struct {
	context.Context
	DB *bbolt.DB
}

func NewRegState(ctx context.Context, dbPath string, chips []string) (*RegState, error) {
	// open register database
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, err
	}
	// create buckets in the register database for all chips
	if err = db.Update(func(tx *bbolt.Tx) error {
		for _, chip := range chips {
			_, err = tx.CreateBucketIfNotExists(bucketName(chip))
			if err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &RegState{
		Context: ctx,
		DB:      db,
	}, nil
}

func registerKey(page, reg int) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint16(b[0:2], uint16(page))
	binary.BigEndian.PutUint16(b[2:4], uint16(reg))
	return b
}

func parseRegisterKey(b []byte) (int, int) {
	return int(binary.BigEndian.Uint16(b[0:2])), int(binary.BigEndian.Uint16(b[2:4]))
}

func bucketName(chip string) []byte {
	return []byte(BucketNamePrefix + chip)
}

// Close ...
func (s *RegState) Close() error {
	return s.DB.Close()
}

// WriteRegisters stores every register of registers in one transaction
func (s *RegState) WriteRegisters(chip string, registers roc.RegisterSet) error {
	log.Debug("Storing %d registers of chip %s", registers.Len(), chip)
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName(chip))
		if b == nil {
			return ErrBucketNotFound{Name: string(bucketName(chip))}
		}
		for _, row := range registers.Rows() {
			if err := b.Put(registerKey(row.Page, row.Register), []byte{row.Value}); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadRegisters returns the stored values of the registers in shape.
// Registers never stored are left out of the result.
func (s *RegState) ReadRegisters(chip string, shape roc.RegisterSet) (roc.RegisterSet, error) {
	log.Debug("Reading %d registers of chip %s", shape.Len(), chip)
	registers := roc.NewRegisterSet()
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName(chip))
		if b == nil {
			return ErrBucketNotFound{Name: string(bucketName(chip))}
		}
		for _, row := range shape.Rows() {
			value := b.Get(registerKey(row.Page, row.Register))
			if len(value) == 1 {
				registers.Set(row.Page, row.Register, value[0])
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return registers, nil
}

// ReadAll returns every stored register of a chip
func (s *RegState) ReadAll(chip string) (roc.RegisterSet, error) {
	registers := roc.NewRegisterSet()
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName(chip))
		if b == nil {
			return ErrBucketNotFound{Name: string(bucketName(chip))}
		}
		return b.ForEach(func(k, v []byte) error {
			if len(k) != 4 || len(v) != 1 {
				return nil
			}
			page, reg := parseRegisterKey(k)
			registers.Set(page, reg, v[0])
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return registers, nil
}
