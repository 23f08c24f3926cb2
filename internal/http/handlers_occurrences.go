package http

import (
	"errors"
	"net/http"

	"ricorrenze/internal/core"
)

type occurrenceListResponse struct {
	Items   []core.ItemRecurrenceInfo `json:"items"`
	Summary core.OccurrenceSummary    `json:"summary"`
}

type upcomingResponse struct {
	Horizon core.Date                 `json:"horizon"`
	Items   []core.ItemRecurrenceInfo `json:"items"`
}

// handleListOccurrences lists occurrences dated within [from, until]. from
// defaults to the start of the series and until to a year from today; until
// may not be more than maxWindowDays ahead.
func (s *Server) handleListOccurrences(w http.ResponseWriter, r *http.Request) {
	now := today(s.now())
	until, err := queryDate(r, "until", now.AddDays(defaultWindowDays))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if limit := now.AddDays(maxWindowDays); until.After(limit) {
		writeError(w, r, badRequest("until %s is beyond %s", until, limit))
		return
	}
	from, err := queryDate(r, "from", core.Date{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !from.IsEmpty() && until.Before(from) {
		writeError(w, r, badRequest("until %s is before from %s", until, from))
		return
	}

	id := r.PathValue("id")
	var items []core.ItemRecurrenceInfo
	if from.IsEmpty() {
		items, err = s.svc.EnumerateOccurrences(r.Context(), id, until)
	} else {
		items, err = s.svc.EnumerateOccurrencesBetween(r.Context(), id, from, until)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []core.ItemRecurrenceInfo{}
	}
	writeJSON(w, http.StatusOK, occurrenceListResponse{Items: items, Summary: core.Summarize(items)})
}

func (s *Server) handleGetOccurrence(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeOccurrence(w, r, r.PathValue("id"), index)
}

// handleNextPending answers 204 when nothing is pending.
func (s *Server) handleNextPending(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.NextPendingOccurrence(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if info == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleRecordOccurrence completes an occurrence. Omitted fields default to
// the occurrence's current effective values.
func (s *Server) handleRecordOccurrence(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req overridesDTO
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}

	current, err := s.svc.GetOccurrence(r.Context(), id, index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date := current.Date
	if req.Date != nil {
		date = *req.Date
	}
	if _, err := s.svc.RecordOccurrence(r.Context(), id, index, date, req.OriginSplits, req.DestinationSplits); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeOccurrence(w, r, id, index)
}

func (s *Server) handleEditOccurrence(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req overridesDTO
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.svc.EditSingleOccurrence(r.Context(), id, index, req.toCore()); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeOccurrence(w, r, id, index)
}

func (s *Server) handleDeleteOccurrence(w http.ResponseWriter, r *http.Request) {
	s.occurrenceAction(w, r, func(id string, index int) error {
		_, err := s.svc.DeleteSingleOccurrence(r.Context(), id, index)
		return err
	})
}

func (s *Server) handleSkipOccurrence(w http.ResponseWriter, r *http.Request) {
	s.occurrenceAction(w, r, func(id string, index int) error {
		_, err := s.svc.SkipOccurrence(r.Context(), id, index)
		return err
	})
}

// handleResetOccurrence answers 204 when the reset removed the only record
// of an index the template's rule no longer produces.
func (s *Server) handleResetOccurrence(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	changed, err := s.svc.ResetOccurrence(r.Context(), id, index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	info, err := s.svc.GetOccurrence(r.Context(), id, index)
	if changed && errors.Is(err, core.ErrOccurrenceIndexOutOfRange) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	days, err := queryDays(r, "days", defaultHorizonDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	horizon := today(s.now()).AddDays(days)
	items, err := s.upcoming.NextPendingForAll(r.Context(), horizon)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []core.ItemRecurrenceInfo{}
	}
	writeJSON(w, http.StatusOK, upcomingResponse{Horizon: horizon, Items: items})
}

func (s *Server) occurrenceAction(w http.ResponseWriter, r *http.Request, action func(id string, index int) error) {
	id := r.PathValue("id")
	index, err := pathIndex(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := action(id, index); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeOccurrence(w, r, id, index)
}

// writeOccurrence answers with the effective view of one occurrence.
func (s *Server) writeOccurrence(w http.ResponseWriter, r *http.Request, id string, index int) {
	info, err := s.svc.GetOccurrence(r.Context(), id, index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
