package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/council-ops/unit-roster/internal/fetcher"
	"github.com/council-ops/unit-roster/internal/identity"
	"github.com/council-ops/unit-roster/internal/model"
	"github.com/council-ops/unit-roster/internal/pipeline"
)

type resolveRequest struct {
	Source string          `json:"source"`
	Record model.RawRecord `json:"record"`
}

type localityResult struct {
	Value string `json:"value,omitempty"`
	Found bool   `json:"found"`
	Via   string `json:"via,omitempty"`
}

type resolveResponse struct {
	Locality  localityResult   `json:"locality"`
	Entity    *model.Entity    `json:"entity,omitempty"`
	Rejection *model.Rejection `json:"rejection,omitempty"`
}

type scoreRequest struct {
	Record model.RawRecord `json:"record"`
}

type scoreResponse struct {
	Entity *model.Entity `json:"entity"`
	model.ScoreResult
}

type reconcileRequest struct {
	Roster  []model.RawRecord `json:"roster"`
	Listing []model.RawRecord `json:"listing"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !decode(w, r, &req) {
		return
	}

	src := model.SourceListing
	if req.Source != "" {
		var err error
		if src, err = model.ParseSource(req.Source); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	rec := fetcher.Clean(req.Record)
	loc := s.pipe.Locator().Resolve(model.Val(rec.Address), model.Val(rec.Description), model.Val(rec.Organization))
	resp := resolveResponse{
		Locality: localityResult{Value: loc.Value, Found: loc.Found, Via: loc.Via},
	}

	e, rej, err := s.entity(rec, src)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	resp.Entity = e
	resp.Rejection = rej
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !decode(w, r, &req) {
		return
	}

	e, rej, err := s.entity(fetcher.Clean(req.Record), model.SourceListing)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	if rej != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": rej.Reason, "rejection": rej})
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{Entity: e, ScoreResult: s.pipe.Scorer().Score(e)})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if !decode(w, r, &req) {
		return
	}

	report, err := s.pipe.Run(r.Context(), pipeline.Input{
		RunID:    uuid.New().String(),
		Roster:   []pipeline.Batch{{Name: "roster", Source: model.SourceRoster, Records: cleanAll(req.Roster)}},
		Listings: []pipeline.Batch{{Name: "listing", Source: model.SourceListing, Records: cleanAll(req.Listing)}},
	})
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// entity normalizes one record. A rejection is a normal result, not an error.
func (s *Server) entity(rec model.RawRecord, src model.Source) (*model.Entity, *model.Rejection, error) {
	norm, err := s.pipe.Normalizer(nil)
	if err != nil {
		return nil, nil, err
	}
	e, err := norm.Entity(rec, src, "api")
	if err != nil {
		var rej *identity.RejectedError
		if errors.As(err, &rej) {
			return nil, &rej.Rejection, nil
		}
		return nil, nil, err
	}
	return e, nil, nil
}

func cleanAll(records []model.RawRecord) []model.RawRecord {
	out := make([]model.RawRecord, len(records))
	for i, rec := range records {
		out[i] = fetcher.Clean(rec)
	}
	return out
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	zap.L().Error("api: request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}
