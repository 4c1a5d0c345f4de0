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

package command

import (
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/retroenv/retrogolib/assert"

	"jinr.ru/greenlab/go-roc/pkg/config"
	"jinr.ru/greenlab/go-roc/pkg/roc"
	"jinr.ru/greenlab/go-roc/pkg/srv"
)

func newTestClient(t *testing.T) *ApiClient {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "db", "registers.db")

	compiler, err := NewCompiler(cfg)
	assert.NoError(t, err)
	chips, store, err := NewChips(context.Background(), cfg, compiler)
	assert.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s, err := srv.NewApiServer(context.Background(), cfg, compiler, chips)
	assert.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	host, port, err := net.SplitHostPort(ts.Listener.Addr().String())
	assert.NoError(t, err)
	cfg.IP = host
	cfg.ApiPort, err = strconv.Atoi(port)
	assert.NoError(t, err)
	return NewApiClient(cfg)
}

func TestNewCompiler(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Catalog = nil
	compiler, err := NewCompiler(cfg)
	assert.NoError(t, err)
	assert.Equal(t, "hgcroc", compiler.Catalog().Type)

	cfg.Catalog = &config.CatalogConfig{Type: "hgcroc", Version: "v3", Path: filepath.Join(t.TempDir(), "missing.yaml")}
	_, err = NewCompiler(cfg)
	assert.True(t, err != nil)
}

func TestClientCatalog(t *testing.T) {
	client := newTestClient(t)

	info, err := client.Catalog()
	assert.NoError(t, err)
	assert.Equal(t, 87, len(info.Pages))

	page, err := client.Page("global_analog_0")
	assert.NoError(t, err)
	assert.Equal(t, "GLOBAL_ANALOG_0", page.Name)
	assert.True(t, len(page.Parameters) > 0)

	defaults, err := client.Defaults()
	assert.NoError(t, err)
	gain, ok := defaults.Get("GLOBAL_ANALOG_0", "GAIN_CONV")
	assert.True(t, ok)
	assert.Equal(t, uint64(4), gain)

	_, err = client.Page("NOPE")
	var apiErr ErrApi
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "404 Not Found", apiErr.Status)
}

func TestClientCompileDecompile(t *testing.T) {
	client := newTestClient(t)

	settings := roc.Settings{"GLOBAL_ANALOG_*": {"GAIN_CONV": 9}}
	registers, err := client.Compile(settings, false)
	assert.NoError(t, err)
	value, ok := registers.Get(297, 0)
	assert.True(t, ok)
	assert.Equal(t, uint8(0x90), value)

	result, err := client.Decompile(registers, false)
	assert.NoError(t, err)
	gain, ok := result.Settings.Get("GLOBAL_ANALOG_1", "GAIN_CONV")
	assert.True(t, ok)
	assert.Equal(t, uint64(9), gain)
}

func TestClientChip(t *testing.T) {
	client := newTestClient(t)

	written, err := client.ChipWrite("roc0", []roc.Settings{{"TOP": {"PHASE": 5}}}, true)
	assert.NoError(t, err)
	assert.True(t, written.Len() > 0)

	result, err := client.ChipRead("roc0", "TOP", true)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(result.Warnings))
	phase, ok := result.Settings.Get("TOP", "PHASE")
	assert.True(t, ok)
	assert.Equal(t, uint64(5), phase)

	registers, err := client.ChipRegisters("roc0", "TOP")
	assert.NoError(t, err)
	assert.Equal(t, 9, registers.Len())

	_, err = client.ChipRead("nope", "TOP", false)
	assert.True(t, err != nil)
}

func TestChipWriteLaterFileOverridesEarlier(t *testing.T) {
	client := newTestClient(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "a.yaml")
	second := filepath.Join(dir, "b.yaml")
	assert.NoError(t, os.WriteFile(first, []byte("CHANNEL_3:\n  DACB: 3\n"), 0644))
	assert.NoError(t, os.WriteFile(second, []byte("CHANNEL_*:\n  DACB: 1\n"), 0644))

	layers, err := LoadSettingsLayers([]string{first, second})
	assert.NoError(t, err)
	_, err = client.ChipWrite("roc0", layers, false)
	assert.NoError(t, err)

	result, err := client.ChipRead("roc0", "CHANNEL_3", true)
	assert.NoError(t, err)
	written, ok := result.Settings.Get("CHANNEL_3", "DACB")
	assert.True(t, ok)

	compiler, err := NewCompiler(client.Config)
	assert.NoError(t, err)
	registers, err := compiler.CompileFiles([]string{first, second}, false)
	assert.NoError(t, err)
	compiled, _ := compiler.Decompile(registers, false)
	expected, _ := compiled.Get("CHANNEL_3", "DACB")
	assert.Equal(t, uint64(1), expected)
	assert.Equal(t, expected, written)

	_, err = LoadSettingsLayers([]string{filepath.Join(dir, "nope.yaml")})
	assert.True(t, err != nil)
}
