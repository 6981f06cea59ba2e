package api

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	ns "github.com/hsfl/cosmos-core-sub000/internal/namespace"
)

const contentTypeWire = "text/plain; charset=utf-8"

// entryResponse describes one entry and its current value.
type entryResponse struct {
	ns.Info

	// Text is the entry in wire form, {"name":value}.
	Text string `json:"text"`

	// Value is set for numeric entries with a finite value.
	Value *float64 `json:"value,omitempty"`

	// In is the unit Value is expressed in when ?unit= was given.
	In string `json:"in,omitempty"`
}

type parseResponse struct {
	Matched int      `json:"matched"`
	Skipped int      `json:"skipped"`
	Unknown []string `json:"unknown,omitempty"`
}

type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

type aliasRequest struct {
	Name   string `json:"name"`
	Target string `json:"target"`
}

type evaluateRequest struct {
	Equation string `json:"equation"`
}

type evaluateResponse struct {
	Equation string   `json:"equation"`
	Value    *float64 `json:"value"`
}

// handleListNamespace returns the entries whose names match ?match= (default
// every entry) as wire text.
func (s *Server) handleListNamespace(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("match")
	if pattern == "" {
		pattern = "*"
	}

	var text string
	err := s.agent.Guard().Do(func(reg *ns.Registry) error {
		var err error
		text, err = reg.SerializeMatch(pattern)
		return err
	})
	if err != nil {
		writeNamespaceError(w, err)
		return
	}
	writeWire(w, text)
}

// handleGetEntry describes one entry. ?unit= converts numeric values to an
// alternate unit of the entry's unit row.
func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	unit := r.URL.Query().Get("unit")

	var resp entryResponse
	err := s.agent.Guard().Do(func(reg *ns.Registry) error {
		h, err := reg.Lookup(name)
		if err != nil {
			return err
		}
		if resp.Info, err = reg.Describe(h); err != nil {
			return err
		}
		if resp.Text, err = reg.Serialize(h); err != nil {
			return err
		}

		var f float64
		if unit != "" {
			if f, err = reg.GetDoubleIn(h, unit); err != nil {
				return err
			}
			resp.In = unit
		} else if f, err = reg.GetDouble(h); err != nil {
			return nil //nolint:nilerr // non-numeric entries have no value
		}
		resp.Value = finite(f)
		return nil
	})
	if err != nil {
		writeNamespaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSetNamespace applies a wire text body to the registry.
func (s *Server) handleSetNamespace(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	st, err := s.agent.Apply(string(body))
	if err != nil {
		writeNamespaceError(w, err)
		return
	}

	if c := claimsFrom(r.Context()); c != nil {
		s.logger.Info("namespace updated", "operator", c.Subject, "matched", st.Matched, "skipped", st.Skipped)
	}
	writeJSON(w, http.StatusOK, parseResponse{Matched: st.Matched, Skipped: st.Skipped, Unknown: st.Unknown})
}

// handleToggleEntry enables or disables an entry and republishes the catalogue.
func (s *Server) handleToggleEntry(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		writeBadRequest(w, `body must be {"enabled": true|false}`)
		return
	}

	var info ns.Info
	err := s.agent.Guard().Do(func(reg *ns.Registry) error {
		if err := reg.Toggle(name, *req.Enabled); err != nil {
			return err
		}
		h, err := reg.Lookup(name)
		if err != nil {
			return err
		}
		info, err = reg.Describe(h)
		return err
	})
	if err != nil {
		writeNamespaceError(w, err)
		return
	}

	s.republishCatalogue()
	writeJSON(w, http.StatusOK, info)
}

// handleAddAlias registers an alias or an equation alias.
func (s *Server) handleAddAlias(w http.ResponseWriter, r *http.Request) {
	var req aliasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" || req.Target == "" {
		writeBadRequest(w, "name and target are required")
		return
	}

	var info ns.Info
	err := s.agent.Guard().Do(func(reg *ns.Registry) error {
		if _, err := reg.AddAlias(req.Name, req.Target); err != nil {
			return err
		}
		h, err := reg.Lookup(req.Name)
		if err != nil {
			return err
		}
		info, err = reg.Describe(h)
		return err
	})
	if err != nil {
		writeNamespaceError(w, err)
		return
	}

	if c := claimsFrom(r.Context()); c != nil {
		s.logger.Info("alias added", "operator", c.Subject, "name", req.Name, "target", req.Target)
	}
	s.republishCatalogue()
	writeJSON(w, http.StatusCreated, info)
}

// handleEvaluate evaluates an equation against the live registry. The
// equation is compiled for this request only and never interned.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Equation == "" {
		writeBadRequest(w, `body must be {"equation": "(...)"}`)
		return
	}

	var f float64
	err := s.agent.Guard().Do(func(reg *ns.Registry) error {
		var err error
		f, err = reg.EvaluateOnce(req.Equation)
		return err
	})
	if s.metrics != nil {
		s.metrics.Metrics.EquationEvaluations.Inc()
	}
	if err != nil {
		writeNamespaceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluateResponse{Equation: req.Equation, Value: finite(f)})
}

// handleCatalogue returns the registry catalogue as JSON, or as the CBOR
// message published on the bus when ?format=cbor.
func (s *Server) handleCatalogue(w http.ResponseWriter, r *http.Request) {
	c := s.agent.Catalogue(time.Now())
	if r.URL.Query().Get("format") != "cbor" {
		writeJSON(w, http.StatusOK, c)
		return
	}

	data, err := c.Marshal()
	if err != nil {
		writeInternalError(w, "encoding catalogue")
		return
	}
	w.Header().Set("Content-Type", "application/cbor")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck // Best-effort write to response; connection may be closed
}

func (s *Server) republishCatalogue() {
	if err := s.agent.PublishCatalogue(); err != nil {
		s.logger.Warn("catalogue not republished", "error", err)
	}
}

// readBody reads the request body, answering 413 when the size limit is hit.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body too large")
			return nil, false
		}
		writeBadRequest(w, "reading request body")
		return nil, false
	}
	return body, true
}

func writeWire(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", contentTypeWire)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, text) //nolint:errcheck // Best-effort write to response; connection may be closed
}

// writeNamespaceError maps registry error kinds to HTTP statuses.
func writeNamespaceError(w http.ResponseWriter, err error) {
	kind, ok := ns.KindOf(err)
	if !ok {
		writeInternalError(w, err.Error())
		return
	}
	switch kind {
	case ns.KindNotFound, ns.KindOutOfRange:
		writeNotFound(w, err.Error())
	case ns.KindScan, ns.KindEndOfStream, ns.KindInvalid, ns.KindType:
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case ns.KindGrowth:
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		writeUnavailable(w, err.Error())
	}
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
