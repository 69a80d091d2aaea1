package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/gray-logic-feeder/internal/hass"
)

// persistPayload asks the bridge to store the new discovery flag.
const persistPayload = "save"

// discoveryRequest is the body of PUT /hass/discovery.
type discoveryRequest struct {
	Enabled *bool `json:"enabled"`
	Persist bool  `json:"persist"`
}

// publishRequest is the body of POST /bus/publish.
type publishRequest struct {
	Topic   string `json:"topic"`
	Payload string `json:"payload"`
}

// handleHassStatus returns the discovery bridge state. The snapshot is taken
// on the bus goroutine, which owns the bridge.
func (s *Server) handleHassStatus(w http.ResponseWriter, r *http.Request) {
	if s.bridge == nil {
		writeUnavailable(w, "discovery bridge not running")
		return
	}

	var status hass.Status
	if err := s.bus.Do(r.Context(), func() { status = s.bridge.Status() }); err != nil {
		s.logger.Warn("reading bridge status failed", "error", err)
		writeUnavailable(w, "bus not responding")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleSetDiscovery turns auto-discovery on or off by publishing the same
// command a remote controller would send.
func (s *Server) handleSetDiscovery(w http.ResponseWriter, r *http.Request) {
	var req discoveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Enabled == nil {
		writeBadRequest(w, "enabled is required")
		return
	}

	topic := hass.TopicCommandDisable
	if *req.Enabled {
		topic = hass.TopicCommandEnable
	}
	var payload []byte
	if req.Persist {
		payload = []byte(persistPayload)
	}

	s.logger.Info("discovery change requested",
		"enabled", *req.Enabled,
		"persist", req.Persist,
		"subject", r.Context().Value(ctxKeySubject),
	)
	if err := s.bus.Publish(topic, payload); err != nil {
		s.logger.Error("publishing discovery command failed", "topic", topic, "error", err)
		writeUnavailable(w, "bus rejected command")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"enabled": *req.Enabled,
		"persist": req.Persist,
	})
}

// handleNetwork returns the most recent network sample.
func (s *Server) handleNetwork(w http.ResponseWriter, _ *http.Request) {
	if s.network == nil {
		writeUnavailable(w, "network monitor not running")
		return
	}
	writeJSON(w, http.StatusOK, s.network.Status())
}

// handleBusPublish injects a message into the local bus.
func (s *Server) handleBusPublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.bus.Publish(req.Topic, []byte(req.Payload)); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"topic": req.Topic})
}
