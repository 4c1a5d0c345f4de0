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
	"fmt"
	"net/http"

	"github.com/imroc/req"

	"jinr.ru/greenlab/go-roc/pkg/config"
	"jinr.ru/greenlab/go-roc/pkg/roc"
	"jinr.ru/greenlab/go-roc/pkg/srv"
)

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s:%d/api", cfg.IP, cfg.ApiPort),
	}
}

func (c *ApiClient) chipUrl(chip, action string) string {
	return fmt.Sprintf("%s/chip/%s/%s", c.ApiPrefix, chip, action)
}

func checkResponse(r *req.Resp) error {
	if r.Response().StatusCode != http.StatusOK {
		return ErrApi{Status: r.Response().Status, What: r.String()}
	}
	return nil
}

// Catalog returns the pages of the catalog used by the server
func (c *ApiClient) Catalog() (*srv.CatalogInfo, error) {
	r, err := req.Get(fmt.Sprintf("%s/catalog", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if err := checkResponse(r); err != nil {
		return nil, err
	}
	info := &srv.CatalogInfo{}
	if err := r.ToJSON(info); err != nil {
		return nil, err
	}
	return info, nil
}

// Page returns the parameters of a page
func (c *ApiClient) Page(page string) (*srv.PageInfo, error) {
	r, err := req.Get(fmt.Sprintf("%s/pages/%s", c.ApiPrefix, page))
	if err != nil {
		return nil, err
	}
	if err := checkResponse(r); err != nil {
		return nil, err
	}
	info := &srv.PageInfo{}
	if err := r.ToJSON(info); err != nil {
		return nil, err
	}
	return info, nil
}

// Defaults returns the default value of every parameter of every page
func (c *ApiClient) Defaults() (roc.Settings, error) {
	r, err := req.Get(fmt.Sprintf("%s/defaults", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if err := checkResponse(r); err != nil {
		return nil, err
	}
	settings := roc.NewSettings()
	if err := r.ToJSON(&settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Compile sends settings to be compiled by the server
func (c *ApiClient) Compile(settings roc.Settings, defaults bool) (roc.RegisterSet, error) {
	body := &srv.CompileRequest{Settings: settings, Defaults: defaults}
	r, err := req.Post(fmt.Sprintf("%s/compile", c.ApiPrefix), req.BodyJSON(body))
	if err != nil {
		return nil, err
	}
	return registersFromResponse(r)
}

// Decompile sends registers to be decompiled by the server
func (c *ApiClient) Decompile(registers roc.RegisterSet, careful bool) (*srv.DecompileResponse, error) {
	body := &srv.DecompileRequest{Registers: registers.Rows(), Careful: careful}
	r, err := req.Post(fmt.Sprintf("%s/decompile", c.ApiPrefix), req.BodyJSON(body))
	if err != nil {
		return nil, err
	}
	return decompileFromResponse(r)
}

// ChipWrite sends settings layers to be written to a chip and returns the written registers.
// Layers are expanded and overlaid by the server in the given order.
func (c *ApiClient) ChipWrite(chip string, layers []roc.Settings, defaults bool) (roc.RegisterSet, error) {
	body := &srv.CompileRequest{Layers: layers, Defaults: defaults}
	r, err := req.Post(c.chipUrl(chip, "write"), req.BodyJSON(body))
	if err != nil {
		return nil, err
	}
	return registersFromResponse(r)
}

// ChipRead reads and decompiles the pages of a chip selected by page
func (c *ApiClient) ChipRead(chip, page string, careful bool) (*srv.DecompileResponse, error) {
	params := req.QueryParam{
		"page":    page,
		"careful": careful,
	}
	r, err := req.Get(c.chipUrl(chip, "read"), params)
	if err != nil {
		return nil, err
	}
	return decompileFromResponse(r)
}

// ChipRegisters reads raw registers of the pages of a chip selected by page
func (c *ApiClient) ChipRegisters(chip, page string) (roc.RegisterSet, error) {
	r, err := req.Get(c.chipUrl(chip, "registers"), req.QueryParam{"page": page})
	if err != nil {
		return nil, err
	}
	return registersFromResponse(r)
}

func registersFromResponse(r *req.Resp) (roc.RegisterSet, error) {
	if err := checkResponse(r); err != nil {
		return nil, err
	}
	var rows []roc.RegisterRow
	if err := r.ToJSON(&rows); err != nil {
		return nil, err
	}
	return roc.RegisterSetFromRows(rows), nil
}

func decompileFromResponse(r *req.Resp) (*srv.DecompileResponse, error) {
	if err := checkResponse(r); err != nil {
		return nil, err
	}
	result := &srv.DecompileResponse{}
	if err := r.ToJSON(result); err != nil {
		return nil, err
	}
	return result, nil
}
