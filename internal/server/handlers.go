package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/auto-dns/fleet-dashboard/internal/domain"
)

type pageRequest struct {
	Page *int `json:"page"`
}

type pageSizeRequest struct {
	PageSize *int `json:"page_size"`
}

func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	s.writeDashboard(w)
}

func (s *Server) getFilterOptions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, toFilterOptionsView(s.vm.FilterOptions()))
}

// postFilters takes a JSON object of filter field names to values. String
// and boolean values are accepted; absent fields keep their current value.
func (s *Server) postFilters(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	patch, err := patchFromBody(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.vm.ChangeFilters(detach(r), patch)
	s.writeDashboard(w)
}

func (s *Server) postPage(w http.ResponseWriter, r *http.Request) {
	var body pageRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.Page == nil {
		s.writeError(w, http.StatusBadRequest, errors.New("page is required"))
		return
	}
	s.vm.ChangePage(detach(r), *body.Page)
	s.writeDashboard(w)
}

func (s *Server) postPageSize(w http.ResponseWriter, r *http.Request) {
	var body pageSizeRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.PageSize == nil {
		s.writeError(w, http.StatusBadRequest, errors.New("page_size is required"))
		return
	}
	s.vm.ChangePageSize(detach(r), *body.PageSize)
	s.writeDashboard(w)
}

func (s *Server) postRefresh(w http.ResponseWriter, r *http.Request) {
	s.vm.Refresh(detach(r))
	s.writeDashboard(w)
}

func (s *Server) writeDashboard(w http.ResponseWriter) {
	view := toDashboardView(s.vm.State(), s.vm.Status(), s.vm.LastError(), s.localAlerts)
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorView{Message: err.Error()})
}

// detach keeps a change running when the client goes away; the view model
// cancels it itself once a newer change supersedes it.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func patchFromBody(body map[string]any) (domain.FiltersPatch, error) {
	fields := make([]string, 0, len(body))
	for k := range body {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	var patch domain.FiltersPatch
	for _, field := range fields {
		var value string
		switch v := body[field].(type) {
		case string:
			value = v
		case bool:
			value = strconv.FormatBool(v)
		case nil:
			value = ""
		default:
			return patch, domain.NewFilterValueError(domain.FilterField(field), fmt.Sprint(v))
		}
		var err error
		if patch, err = patch.WithField(domain.FilterField(field), value); err != nil {
			return patch, err
		}
	}
	return patch, nil
}
