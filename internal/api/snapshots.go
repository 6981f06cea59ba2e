package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	ns "github.com/hsfl/cosmos-core-sub000/internal/namespace"
	"github.com/hsfl/cosmos-core-sub000/internal/snapshot"
)

// snapshotResponse is a stored snapshot including its wire text.
type snapshotResponse struct {
	snapshot.Snapshot
	Text string `json:"text"`
}

// handleListSnapshots lists snapshot metadata, newest first.
// ?node= defaults to this node; ?node=* lists every node.
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		writeUnavailable(w, "snapshots are not enabled")
		return
	}

	node := r.URL.Query().Get("node")
	switch node {
	case "":
		node = s.agent.Node()
	case "*":
		node = ""
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	list, err := s.snapshots.List(r.Context(), node, limit)
	if err != nil {
		s.logger.Error("listing snapshots", "error", err)
		writeInternalError(w, "listing snapshots")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshots": list,
		"count":     len(list),
	})
}

// handleGetSnapshot returns one snapshot with its text.
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		writeUnavailable(w, "snapshots are not enabled")
		return
	}

	snap, err := s.snapshots.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, snapshot.ErrNotFound) {
		writeNotFound(w, "snapshot not found")
		return
	}
	if err != nil {
		s.logger.Error("reading snapshot", "error", err)
		writeInternalError(w, "reading snapshot")
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{Snapshot: snap, Text: snap.Text})
}

// handleListNodes lists the remote nodes mirrored from the bus.
func (s *Server) handleListNodes(w http.ResponseWriter, _ *http.Request) {
	if s.mirror == nil {
		writeUnavailable(w, "remote mirroring is not enabled")
		return
	}
	nodes := s.mirror.Nodes()
	writeJSON(w, http.StatusOK, map[string]any{
		"nodes": nodes,
		"count": len(nodes),
	})
}

// handleRemoteNamespace returns a mirrored node's entries as wire text.
func (s *Server) handleRemoteNamespace(w http.ResponseWriter, r *http.Request) {
	if s.mirror == nil {
		writeUnavailable(w, "remote mirroring is not enabled")
		return
	}
	guard, ok := s.mirror.Node(chi.URLParam(r, "node"))
	if !ok {
		writeNotFound(w, "node not mirrored")
		return
	}

	pattern := r.URL.Query().Get("match")
	if pattern == "" {
		pattern = "*"
	}
	var text string
	err := guard.Do(func(reg *ns.Registry) error {
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
