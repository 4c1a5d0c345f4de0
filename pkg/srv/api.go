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

// go-roc API
//
// RESTful APIs to compile read-out chip settings and program chips.
// The API document is served at /api/swagger.json and rendered at /docs.
package srv

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-openapi/loads"
	"github.com/go-openapi/runtime/middleware"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"jinr.ru/greenlab/go-roc/pkg/chip"
	"jinr.ru/greenlab/go-roc/pkg/config"
	"jinr.ru/greenlab/go-roc/pkg/log"
	"jinr.ru/greenlab/go-roc/pkg/roc"
)

type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	compiler *roc.Compiler
	chips    map[string]*chip.Chip
	doc      *loads.Document
}

func NewApiServer(ctx context.Context, cfg *config.Config, compiler *roc.Compiler, chips []*chip.Chip) (*ApiServer, error) {
	log.Info("Initializing API server with address: %s port: %d", cfg.IP, cfg.ApiPort)

	doc, err := LoadSwagger()
	if err != nil {
		return nil, err
	}
	s := &ApiServer{
		Context:  ctx,
		Config:   cfg,
		compiler: compiler,
		chips:    make(map[string]*chip.Chip, len(chips)),
		doc:      doc,
	}
	for _, c := range chips {
		s.chips[strings.ToLower(c.Name)] = c
	}
	s.configureRouter()
	return s, nil
}

func (s *ApiServer) getChip(name string) (*chip.Chip, error) {
	c, ok := s.chips[strings.ToLower(name)]
	if !ok {
		return nil, config.ErrChipNotFound{Name: name}
	}
	return c, nil
}

// Handler is the router wrapped with panic recovery and access logging
func (s *ApiServer) Handler() http.Handler {
	recovery := handlers.RecoveryHandler(handlers.PrintRecoveryStack(log.Enabled(log.DebugLevel)))
	return handlers.LoggingHandler(log.Writer(), recovery(s.Router))
}

// Run serves until the context is done
func (s *ApiServer) Run() error {
	log.Info("Starting API server: address: %s port: %d", s.Config.IP, s.Config.ApiPort)
	httpServer := &http.Server{
		Handler: s.Handler(),
		Addr:    fmt.Sprintf("%s:%d", s.Config.IP, s.Config.ApiPort),
	}
	go func() {
		<-s.Done()
		log.Info("Stopping API server")
		httpServer.Shutdown(context.Background())
	}()
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	subRouter.HandleFunc("/catalog", s.handleCatalog()).Methods("GET")
	subRouter.HandleFunc("/pages/{page}", s.handlePage()).Methods("GET")
	subRouter.HandleFunc("/defaults", s.handleDefaults()).Methods("GET")
	subRouter.HandleFunc("/compile", s.handleCompile()).Methods("POST")
	subRouter.HandleFunc("/decompile", s.handleDecompile()).Methods("POST")
	subRouter.HandleFunc("/chip/{chip}/write", s.handleChipWrite()).Methods("POST")
	subRouter.HandleFunc("/chip/{chip}/read", s.handleChipRead()).Methods("GET")
	subRouter.HandleFunc("/chip/{chip}/registers", s.handleChipRegisters()).Methods("GET")
	subRouter.HandleFunc("/swagger.json", s.handleSwagger()).Methods("GET")
	s.Router.Handle("/docs", middleware.Redoc(middleware.RedocOpts{
		Path:    "docs",
		SpecURL: "/api/swagger.json",
		Title:   s.doc.Spec().Info.Title,
	}, http.NotFoundHandler()))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Error while encoding response: %s", err)
	}
}

func pageInfo(entry *roc.PageEntry, withParameters bool) *PageInfo {
	info := &PageInfo{
		Name:    entry.Name,
		Address: entry.Address,
		Schema:  entry.Schema.Name,
	}
	if withParameters {
		for _, name := range entry.Schema.ParameterNames() {
			p, _ := entry.Schema.Parameter(name)
			info.Parameters = append(info.Parameters, &ParameterInfo{
				Name:      p.Name,
				Default:   p.Default,
				Width:     p.Width(),
				Locations: p.Locations,
			})
		}
	}
	return info
}

func (s *ApiServer) handleCatalog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := s.compiler.Catalog()
		info := &CatalogInfo{
			Type:         c.Type,
			Version:      c.Version,
			DirectAccess: s.compiler.DirectAccessNames(),
		}
		for _, name := range c.PageNames() {
			entry, _ := c.Page(name)
			info.Pages = append(info.Pages, pageInfo(entry, false))
		}
		writeJSON(w, info)
	}
}

func (s *ApiServer) handlePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling page request: page: %s", vars["page"])
		entry, ok := s.compiler.Catalog().Page(vars["page"])
		if !ok {
			http.Error(w, roc.ErrUnknownPage{Pattern: vars["page"]}.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, pageInfo(entry, true))
	}
}

func (s *ApiServer) handleDefaults() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.compiler.Defaults())
	}
}

func (s *ApiServer) handleCompile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &CompileRequest{}
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		layers := req.AllLayers()
		log.Debug("Handling compile request: layers: %d defaults: %t", len(layers), req.Defaults)

		settings, err := s.compiler.Layer(layers, req.Defaults)
		if err != nil {
			http.Error(w, err.Error(), errorStatus(err, http.StatusBadRequest))
			return
		}
		registers, err := s.compiler.CompileSettings(settings)
		if err != nil {
			http.Error(w, err.Error(), errorStatus(err, http.StatusBadRequest))
			return
		}
		writeJSON(w, registers.Rows())
	}
}

func (s *ApiServer) handleDecompile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &DecompileRequest{}
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Debug("Handling decompile request: %d registers careful: %t", len(req.Registers), req.Careful)
		settings, warnings := s.compiler.Decompile(roc.RegisterSetFromRows(req.Registers), req.Careful)
		writeJSON(w, &DecompileResponse{Settings: settings, Warnings: warnings})
	}
}

func (s *ApiServer) handleChipWrite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		c, err := s.getChip(vars["chip"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		req := &CompileRequest{}
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		layers := req.AllLayers()
		log.Debug("Handling chip write request: chip: %s layers: %d defaults: %t", c.Name, len(layers), req.Defaults)

		registers, err := c.ApplyLayers(layers, req.Defaults)
		if err != nil {
			http.Error(w, err.Error(), errorStatus(err, http.StatusBadGateway))
			return
		}
		writeJSON(w, registers.Rows())
	}
}

func pageQuery(r *http.Request) string {
	page := r.URL.Query().Get("page")
	if page == "" {
		return roc.Wildcard
	}
	return page
}

func (s *ApiServer) handleChipRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		c, err := s.getChip(vars["chip"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		careful := false
		if v := r.URL.Query().Get("careful"); v != "" {
			careful, err = strconv.ParseBool(v)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		log.Debug("Handling chip read request: chip: %s page: %s careful: %t", c.Name, pageQuery(r), careful)

		settings, warnings, err := c.Read(pageQuery(r), careful)
		if err != nil {
			http.Error(w, err.Error(), errorStatus(err, http.StatusBadGateway))
			return
		}
		writeJSON(w, &DecompileResponse{Settings: settings, Warnings: warnings})
	}
}

func (s *ApiServer) handleChipRegisters() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		c, err := s.getChip(vars["chip"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Debug("Handling chip registers request: chip: %s page: %s", c.Name, pageQuery(r))
		registers, err := c.ReadRegisters(pageQuery(r))
		if err != nil {
			http.Error(w, err.Error(), errorStatus(err, http.StatusBadGateway))
			return
		}
		writeJSON(w, registers.Rows())
	}
}

func (s *ApiServer) handleSwagger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(s.doc.Raw())
	}
}
