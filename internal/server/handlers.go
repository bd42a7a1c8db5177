package server

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/jinhealth/reconcile/internal/api"
	"github.com/jinhealth/reconcile/internal/log"
)

type statusBody struct {
	Status string `json:"status"`
}

func (s *Server) handleCompanyList(w http.ResponseWriter, r *http.Request) {
	names, err := s.names.Get(r.Context(), companyListKey)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	if s.years == nil {
		writeJSON(w, http.StatusOK, []int{})
		return
	}
	years, err := s.years.Years(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, years)
}

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	maps, err := s.companies.Maps(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, maps)
}

func (s *Server) handleUpsertMap(w http.ResponseWriter, r *http.Request) {
	var row api.MapRow
	if err := s.decode(w, r, &row); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.companies.UpsertMap(r.Context(), row); err != nil {
		writeError(w, r, err)
		return
	}
	log.Info(log.CatServer, "Map saved", "original", row.OriginalName, "standard", row.StandardName)
	writeJSON(w, http.StatusOK, statusBody{Status: "ok"})
}

func (s *Server) handleDeleteMap(w http.ResponseWriter, r *http.Request) {
	original := pathParam(r, "original")
	if err := s.companies.DeleteMap(r.Context(), original); err != nil {
		writeError(w, r, err)
		return
	}
	log.Info(log.CatServer, "Map deleted", "original", original)
	writeJSON(w, http.StatusOK, statusBody{Status: "deleted"})
}

func (s *Server) handleListExcludes(w http.ResponseWriter, r *http.Request) {
	names, err := s.companies.Excludes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleAddExclude(w http.ResponseWriter, r *http.Request) {
	var row api.ExcludeRow
	if err := s.decode(w, r, &row); err != nil {
		writeError(w, r, err)
		return
	}
	added, err := s.companies.AddExclude(r.Context(), row)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if added {
		log.Info(log.CatServer, "Exclude added", "name", row.CompanyName)
	}
	writeJSON(w, http.StatusOK, statusBody{Status: "added"})
}

func (s *Server) handleDeleteExclude(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	if err := s.companies.DeleteExclude(r.Context(), name); err != nil {
		writeError(w, r, err)
		return
	}
	log.Info(log.CatServer, "Exclude deleted", "name", name)
	writeJSON(w, http.StatusOK, statusBody{Status: "deleted"})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var req api.SyncRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Maps == nil {
		req.Maps = []api.MapRow{}
	}
	if req.Excludes == nil {
		req.Excludes = []string{}
	}
	resp, err := s.companies.Sync(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.Info(log.CatServer, "Config synced", "maps", resp.Maps, "excludes", resp.Excludes)
	writeJSON(w, http.StatusOK, resp)
}

// pathParam returns a decoded route parameter. chi matches on the escaped path
// when the request carries one, for names containing "/".
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if dec, err := url.PathUnescape(v); err == nil {
		return dec
	}
	return v
}
