package http

import (
	"net/http"

	"ricorrenze/internal/core"
)

type templateListResponse struct {
	Items []templateDTO `json:"items"`
}

type pricePerMonthResponse struct {
	TemplateID    string     `json:"templateId"`
	PricePerMonth core.Money `json:"pricePerMonth"`
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListTemplates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := templateListResponse{Items: make([]templateDTO, 0, len(list))}
	for _, st := range list {
		resp.Items = append(resp.Items, templateFromCore(st))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateDTO
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := req.toCore()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.svc.CreateTemplate(r.Context(), st)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/templates/"+created.ID)
	writeJSON(w, http.StatusCreated, templateFromCore(created))
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.GetTemplate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templateFromCore(*st))
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateDTO
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := req.toCore()
	if err != nil {
		writeError(w, r, err)
		return
	}
	st.ID = r.PathValue("id")
	updated, err := s.svc.UpdateTemplate(r.Context(), st)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templateFromCore(updated))
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTemplate(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearModifications(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.svc.GetTemplate(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.ClearAllModifications(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePricePerMonth(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	price, err := s.svc.PricePerMonth(r.Context(), id, liabilityClassifier(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pricePerMonthResponse{TemplateID: id, PricePerMonth: price})
}
