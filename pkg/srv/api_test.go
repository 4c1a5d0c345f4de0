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

package srv

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"

	"jinr.ru/greenlab/go-roc/pkg/chip"
	"jinr.ru/greenlab/go-roc/pkg/config"
	"jinr.ru/greenlab/go-roc/pkg/roc"
	"jinr.ru/greenlab/go-roc/pkg/state"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.NewDefaultConfig()
	store, err := state.NewRegState(context.Background(), filepath.Join(t.TempDir(), "registers.db"), []string{"roc0"})
	assert.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	compiler, err := roc.NewRegistry(nil).Compiler(cfg.Catalog.Type, cfg.Catalog.Version)
	assert.NoError(t, err)
	c, err := chip.NewFromConfig(cfg.Chips[0], store, compiler)
	assert.NoError(t, err)

	s, err := NewApiServer(context.Background(), cfg, compiler, []*chip.Chip{c})
	assert.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	assert.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	assert.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	assert.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCompile(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL+"/api/compile", &CompileRequest{
		Settings: roc.Settings{"global_analog_0": {"gain_conv": 9, "on_pa": 1}},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var rows []roc.RegisterRow
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	assert.Equal(t, []roc.RegisterRow{{Page: 297, Register: 0, Value: 0x98}}, rows)
}

func TestCompileErrors(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts.URL+"/api/compile", &CompileRequest{Settings: roc.Settings{"NOPE": {"X": 1}}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = post(t, ts.URL+"/api/compile", &CompileRequest{Settings: roc.Settings{"TOP": {"X": 1}}, Defaults: true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	r, err := http.Post(ts.URL+"/api/compile", "application/json", strings.NewReader("{"))
	assert.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
}

func TestDecompile(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL+"/api/decompile", &DecompileRequest{
		Registers: []roc.RegisterRow{{Page: 297, Register: 8, Value: 0x55}},
		Careful:   false,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	result := &DecompileResponse{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(result))
	assert.Equal(t, roc.Settings{"GLOBAL_ANALOG_0": {"VREF_SK": 0x55}}, result.Settings)
	assert.Equal(t, 0, len(result.Warnings))
}

func TestChipWriteRead(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts.URL+"/api/chip/ROC0/write", &CompileRequest{
		Settings: roc.Settings{"TOP": {"PHASE": 5}},
		Defaults: true,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, ts.URL+"/api/chip/roc0/read?page=TOP&careful=true")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	result := &DecompileResponse{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(result))
	assert.Equal(t, 0, len(result.Warnings))
	assert.Equal(t, uint64(5), result.Settings["TOP"]["PHASE"])
	assert.Equal(t, uint64(1), result.Settings["TOP"]["RUN"])

	resp = get(t, ts.URL+"/api/chip/roc0/registers?page=TOP")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var rows []roc.RegisterRow
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	assert.Equal(t, 9, len(rows))
}

func TestChipWriteLayers(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts.URL+"/api/chip/roc0/write", &CompileRequest{
		Layers: []roc.Settings{
			{"CHANNEL_3": {"DACB": 3}},
			{"CHANNEL_*": {"DACB": 1}},
		},
		Settings: roc.Settings{"CHANNEL_4": {"DACB": 4}},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, ts.URL+"/api/chip/roc0/read?page=CHANNEL_*")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	result := &DecompileResponse{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(result))
	assert.Equal(t, uint64(1), result.Settings["CHANNEL_3"]["DACB"])
	assert.Equal(t, uint64(4), result.Settings["CHANNEL_4"]["DACB"])
}

func TestChipErrors(t *testing.T) {
	ts := newTestServer(t)
	resp := get(t, ts.URL+"/api/chip/nope/read")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = get(t, ts.URL+"/api/chip/roc0/read?page=NOPE")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = get(t, ts.URL+"/api/chip/roc0/read?careful=maybe")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, ts.URL+"/api/chip/roc0/write", &CompileRequest{Settings: roc.Settings{"TOP": {"NOPE": 1}}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCatalogAndPages(t *testing.T) {
	ts := newTestServer(t)
	resp := get(t, ts.URL+"/api/catalog")
	info := &CatalogInfo{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(info))
	assert.Equal(t, "hgcroc", info.Type)
	assert.Equal(t, 87, len(info.Pages))
	assert.Equal(t, 8, len(info.DirectAccess))

	resp = get(t, ts.URL+"/api/pages/global_analog_0")
	page := &PageInfo{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(page))
	assert.Equal(t, 297, page.Address)
	assert.Equal(t, "GLOBAL_ANALOG", page.Schema)
	found := false
	for _, p := range page.Parameters {
		if p.Name == "VREF_SK" {
			found = true
			assert.Equal(t, 10, p.Width)
			assert.Equal(t, 2, len(p.Locations))
		}
	}
	assert.True(t, found)

	resp = get(t, ts.URL+"/api/pages/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = get(t, ts.URL+"/api/defaults")
	defaults := roc.Settings{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&defaults))
	assert.Equal(t, uint64(4), defaults["GLOBAL_ANALOG_0"]["GAIN_CONV"])
}

func TestSwaggerAndDocs(t *testing.T) {
	ts := newTestServer(t)
	resp := get(t, ts.URL+"/api/swagger.json")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	doc := map[string]interface{}{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "2.0", doc["swagger"])

	resp = get(t, ts.URL+"/docs")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "/api/swagger.json"))
}
