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

package dump

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-roc/pkg/roc"
)

var registersHeader = []string{"page", "register", "value"}

// WriteSettings writes settings as YAML page: {parameter: value}, keys sorted
func WriteSettings(w io.Writer, settings roc.Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteRegisters writes one CSV row per register ordered by page and register
func WriteRegisters(w io.Writer, registers roc.RegisterSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(registersHeader); err != nil {
		return err
	}
	for _, row := range registers.Rows() {
		record := []string{
			strconv.Itoa(row.Page),
			strconv.Itoa(row.Register),
			fmt.Sprintf("0x%02x", row.Value),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadRegisters parses CSV written by WriteRegisters. Numbers may be decimal or 0x prefixed hex.
func ReadRegisters(r io.Reader) (roc.RegisterSet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(registersHeader)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	registers := roc.NewRegisterSet()
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && strings.EqualFold(record[0], registersHeader[0]) {
			continue
		}
		page, err := strconv.ParseUint(record[0], 0, 16)
		if err != nil {
			return nil, ErrBadRow{Line: line, What: err.Error()}
		}
		reg, err := strconv.ParseUint(record[1], 0, 8)
		if err != nil || reg > roc.MaxRegister {
			return nil, ErrBadRow{Line: line, What: fmt.Sprintf("bad register %s", record[1])}
		}
		value, err := strconv.ParseUint(record[2], 0, 8)
		if err != nil {
			return nil, ErrBadRow{Line: line, What: err.Error()}
		}
		registers.Set(int(page), int(reg), uint8(value))
	}
	return registers, nil
}
