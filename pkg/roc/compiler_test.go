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

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func newTestCompiler(t *testing.T) *Compiler {
	t.Helper()
	c, err := NewRegistry(nil).Compiler("hgcroc", "v3")
	assert.NoError(t, err)
	return c
}

func TestCompileSingleLocation(t *testing.T) {
	c := newTestCompiler(t)
	rs := NewRegisterSet()
	assert.NoError(t, c.Compile("GLOBAL_ANALOG_0", "GAIN_CONV", 9, rs))
	assert.Equal(t, RegisterSet{297: {0: 0x90}}, rs)

	settings, _ := c.Decompile(rs, false)
	v, ok := settings.Get("GLOBAL_ANALOG_0", "GAIN_CONV")
	assert.True(t, ok)
	assert.Equal(t, uint64(9), v)
}

func TestCompileIsCaseInsensitive(t *testing.T) {
	c := newTestCompiler(t)
	rs := NewRegisterSet()
	assert.NoError(t, c.Compile("global_analog_0", "gain_conv", 9, rs))
	assert.Equal(t, RegisterSet{297: {0: 0x90}}, rs)
}

func TestCompileDisjointFieldsCommute(t *testing.T) {
	c := newTestCompiler(t)

	first := NewRegisterSet()
	assert.NoError(t, c.Compile("GLOBAL_ANALOG_0", "ON_PA", 1, first))
	assert.NoError(t, c.Compile("GLOBAL_ANALOG_0", "GAIN_CONV", 9, first))

	second := NewRegisterSet()
	assert.NoError(t, c.Compile("GLOBAL_ANALOG_0", "GAIN_CONV", 9, second))
	assert.NoError(t, c.Compile("GLOBAL_ANALOG_0", "ON_PA", 1, second))

	assert.Equal(t, RegisterSet{297: {0: 0x98}}, first)
	assert.Equal(t, first, second)
}

func TestCompileKeepsForeignBits(t *testing.T) {
	c := newTestCompiler(t)
	rs := RegisterSet{297: {0: 0xff}}
	assert.NoError(t, c.Compile("GLOBAL_ANALOG_0", "GAIN_CONV", 0, rs))
	assert.Equal(t, uint8(0x0f), rs[297][0])
}

func TestCompileGlobbing(t *testing.T) {
	c := newTestCompiler(t)
	rs, err := c.CompileSettings(Settings{"CHANNEL_*": {"CHANNEL_OFF": 1}})
	assert.NoError(t, err)
	assert.Equal(t, 72, len(rs))

	for i := 0; i < 72; i++ {
		entry, ok := c.Catalog().Page(fmt.Sprintf("CHANNEL_%d", i))
		assert.True(t, ok)
		assert.Equal(t, uint8(0x10), rs[entry.Address][5])
	}
	for _, page := range []string{"CALIB0", "CM0", "TOP"} {
		entry, ok := c.Catalog().Page(page)
		assert.True(t, ok)
		assert.False(t, rs.Has(entry.Address, 5), page)
	}
}

func TestCompileLowerCasePattern(t *testing.T) {
	c := newTestCompiler(t)
	pages, err := c.Pages("channel_1*")
	assert.NoError(t, err)
	assert.Equal(t, 11, len(pages))
	assert.Equal(t, "CHANNEL_1", pages[0])
}

func TestCompileErrors(t *testing.T) {
	c := newTestCompiler(t)

	t.Run("unknown page", func(t *testing.T) {
		err := c.Compile("NO_SUCH_PAGE", "GAIN_CONV", 1, NewRegisterSet())
		var e ErrUnknownPage
		assert.True(t, errors.As(err, &e))
		assert.Equal(t, "NO_SUCH_PAGE", e.Pattern)
	})

	t.Run("unknown wildcard", func(t *testing.T) {
		err := c.Compile("NOTHING*", "GAIN_CONV", 1, NewRegisterSet())
		var e ErrUnknownPage
		assert.True(t, errors.As(err, &e))
	})

	t.Run("unknown parameter writes nothing", func(t *testing.T) {
		rs := NewRegisterSet()
		err := c.Compile("GLOBAL_ANALOG_0", "CHANNEL_OFF", 1, rs)
		var e ErrUnknownParameter
		assert.True(t, errors.As(err, &e))
		assert.Equal(t, "GLOBAL_ANALOG_0", e.Page)
		assert.Equal(t, "CHANNEL_OFF", e.Parameter)
		assert.Equal(t, 0, rs.Len())
	})

	t.Run("settings with unknown parameter", func(t *testing.T) {
		_, err := c.CompileSettings(Settings{"TOP": {"NOT_A_PARAMETER": 1}})
		var e ErrUnknownParameter
		assert.True(t, errors.As(err, &e))
	})
}

func TestCompileMalformedLocation(t *testing.T) {
	page := newPage("BROKEN", []*Parameter{{
		Name:      "WIDE",
		Locations: []RegisterLocation{{Register: 0, MinBit: 6, NBits: 4}},
	}})
	c := NewCompiler(&Catalog{
		Pages:      PageLUT{"BROKEN": page},
		Parameters: ParameterLUT{"BROKEN": {Name: "BROKEN", Address: 1, Schema: page}},
		pageNames:  []string{"BROKEN"},
	})
	err := c.Compile("BROKEN", "WIDE", 1, NewRegisterSet())
	var e ErrMalformedLocation
	assert.True(t, errors.As(err, &e))
	assert.Equal(t, 6, e.Location.MinBit)
}

func TestCompileTruncatesWideValues(t *testing.T) {
	c := newTestCompiler(t)
	rs := NewRegisterSet()
	assert.NoError(t, c.Compile("GLOBAL_ANALOG_0", "GAIN_CONV", 0x1f, rs))
	assert.Equal(t, uint8(0xf0), rs[297][0])
}

func TestExpandOrdersGeneralBeforeSpecific(t *testing.T) {
	c := newTestCompiler(t)
	s := Settings{
		"CHANNEL_3":  {"DACB": 3},
		"CHANNEL_*":  {"DACB": 1},
		"CHANNEL_3*": {"DACB": 2},
	}
	expanded, err := c.Expand(s)
	assert.NoError(t, err)

	tests := map[string]uint64{
		"CHANNEL_0":  1,
		"CHANNEL_3":  3,
		"CHANNEL_30": 2,
		"CHANNEL_35": 2,
		"CHANNEL_40": 1,
	}
	for page, want := range tests {
		v, ok := expanded.Get(page, "DACB")
		assert.True(t, ok, page)
		assert.Equal(t, want, v, page)
	}
	_, ok := expanded.Get("TOP", "DACB")
	assert.False(t, ok)
}

func TestCompileOnto(t *testing.T) {
	c := newTestCompiler(t)
	snapshot := RegisterSet{297: {0: 0x0f, 1: 0xaa}}
	assert.NoError(t, c.CompileOnto(Settings{"GLOBAL_ANALOG_0": {"GAIN_CONV": 2}}, snapshot))
	assert.Equal(t, RegisterSet{297: {0: 0x2f, 1: 0xaa}}, snapshot)
}

func TestCompileMultiLocation(t *testing.T) {
	c := newTestCompiler(t)
	rs := NewRegisterSet()
	// 10 bits: low 8 into register 4, high 2 into register 5
	assert.NoError(t, c.Compile("REFERENCE_VOLTAGE_0", "TOT_VREF", 0x2a5, rs))
	assert.Equal(t, RegisterSet{298: {4: 0xa5, 5: 0x02}}, rs)

	settings, _ := c.Decompile(rs, true)
	v, ok := settings.Get("REFERENCE_VOLTAGE_0", "TOT_VREF")
	assert.True(t, ok)
	assert.Equal(t, uint64(0x2a5), v)
}

func TestMultiLocationDefaults(t *testing.T) {
	c := newTestCompiler(t)
	rs, err := c.CompileSettings(c.Defaults())
	assert.NoError(t, err)

	half, _ := c.Catalog().Page("DIGITAL_HALF_0")
	// IDLE_FRAME 0xCCCCCCC
	assert.Equal(t, uint8(0xcc), rs[half.Address][0])
	assert.Equal(t, uint8(0xcc), rs[half.Address][1])
	assert.Equal(t, uint8(0xcc), rs[half.Address][2])
	assert.Equal(t, uint8(0x0c), rs[half.Address][3]&0x0f)
	// L1OFFSET 8
	assert.Equal(t, uint8(8), rs[half.Address][4])

	ref, _ := c.Catalog().Page("REFERENCE_VOLTAGE_0")
	// TOT_VREF 400 = 0x190
	assert.Equal(t, uint8(0x90), rs[ref.Address][4])
	assert.Equal(t, uint8(0x01), rs[ref.Address][5]&0x03)
}

func writeSettingsFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLayerLaterGlobOverridesEarlierPage(t *testing.T) {
	c := newTestCompiler(t)
	exact := Settings{"CHANNEL_3": {"DACB": 3}}
	glob := Settings{"CHANNEL_*": {"DACB": 1}}

	s, err := c.Layer([]Settings{exact, glob}, false)
	assert.NoError(t, err)
	v, _ := s.Get("CHANNEL_3", "DACB")
	assert.Equal(t, uint64(1), v)

	s, err = c.Layer([]Settings{glob, exact}, false)
	assert.NoError(t, err)
	v, _ = s.Get("CHANNEL_3", "DACB")
	assert.Equal(t, uint64(3), v)
	v, _ = s.Get("CHANNEL_4", "DACB")
	assert.Equal(t, uint64(1), v)

	s, err = c.Layer([]Settings{exact}, true)
	assert.NoError(t, err)
	assert.Equal(t, c.Defaults().Len(), s.Len())

	_, err = c.Layer([]Settings{exact, {"NOPE": {"DACB": 1}}}, false)
	assert.True(t, err != nil)
}

func TestCompileFiles(t *testing.T) {
	c := newTestCompiler(t)
	dir := t.TempDir()
	base := writeSettingsFile(t, dir, "base.yaml", `
channel_*:
  dacb: 5
Global_Analog_0:
  GAIN_CONV: 2
`)
	override := writeSettingsFile(t, dir, "override.yaml", `
CHANNEL_7:
  DACB: 9
GLOBAL_ANALOG_0:
  GAIN_CONV: 9
`)

	t.Run("layered", func(t *testing.T) {
		rs, err := c.CompileFiles([]string{base, override}, false)
		assert.NoError(t, err)
		assert.Equal(t, uint8(0x90), rs[297][0])
		assert.Equal(t, uint8(9), rs[7][0])
		assert.Equal(t, uint8(5), rs[8][0])
		assert.False(t, rs.Has(45, 2))
	})

	t.Run("with defaults", func(t *testing.T) {
		rs, err := c.CompileFiles([]string{base, override}, true)
		assert.NoError(t, err)
		// ON_REF_ADC, ON_DAC_TRIM, ON_CONV, ON_PA default to 1
		assert.Equal(t, uint8(0x9f), rs[297][0])
		// RUN defaults to 1
		assert.Equal(t, uint8(0x10), rs[45][2])
		settings, warnings := c.Decompile(rs, true)
		assert.Equal(t, 0, len(warnings))
		v, _ := settings.Get("CHANNEL_7", "DACB")
		assert.Equal(t, uint64(9), v)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := c.CompileFiles([]string{filepath.Join(dir, "nope.yaml")}, false)
		assert.True(t, err != nil)
	})

	t.Run("unknown page in file", func(t *testing.T) {
		bad := writeSettingsFile(t, dir, "bad.yaml", "NOPE: {DACB: 1}\n")
		_, err := c.CompileFiles([]string{bad}, true)
		var e ErrUnknownPage
		assert.True(t, errors.As(err, &e))
	})
}
