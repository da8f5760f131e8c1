// Package httpapi exposes the submission endpoint whose status-code mapping
// is a contract of the admission core's error surface, plus two read-only
// stub endpoints carried over from the original service's surface area.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"cosmossdk.io/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/blockberries/immune-core/admission"
	"github.com/blockberries/immune-core/envelope"
	"github.com/blockberries/immune-core/quarantine"
	"github.com/blockberries/immune-core/transport"
)

// Server wires the admission pipeline and a downstream publisher into an
// HTTP surface.
type Server struct {
	pipeline          *admission.Pipeline
	publisher         transport.Publisher
	quarantineSubject string
	streamPrefix      string
	maxPayloadBytes   int64
	logger            log.Logger
}

// NewServer builds a Server. streamPrefix is prepended to header.type to
// form the subject accepted envelopes are published under, e.g.
// "aether.stream.core." + "state.mutation". maxPayloadBytes bounds the raw
// submitted body before it is ever handed to the JSON decoder; 0 or
// negative disables the bound.
func NewServer(pipeline *admission.Pipeline, publisher transport.Publisher, quarantineSubject, streamPrefix string, maxPayloadBytes int, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Server{
		pipeline:          pipeline,
		publisher:         publisher,
		quarantineSubject: quarantineSubject,
		streamPrefix:      streamPrefix,
		maxPayloadBytes:   int64(maxPayloadBytes),
		logger:            logger,
	}
}

// Router builds the gorilla/mux router exposing /v1/submit and the two stub
// read endpoints.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v1/submit", s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/v1/state/{key}", s.handleQueryState).Methods(http.MethodGet)
	r.HandleFunc("/v1/ledger/{event_id}", s.handleQueryLedger).Methods(http.MethodGet)
	return r
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	body, err := s.readBody(w, r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.As(err, new(*http.MaxBytesError)) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, map[string]any{"error": "unreadable body", "request_id": requestID})
		return
	}

	decision := s.pipeline.Evaluate(body)

	env, parseErr := envelope.Parse(body)
	correlationID := ""
	if parseErr == nil {
		correlationID = env.CorrelationID()
	}

	if decision.Accepted {
		subject := s.streamPrefix + env.Type()
		ack, err := s.publisher.Publish(r.Context(), decision.CanonicalBytes, subject, correlationID, true)
		if err != nil || !ack.Accepted {
			s.logger.Error("publish failed for accepted envelope", "request_id", requestID, "subject", subject, "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": publishErrorMessage(ack, err, "publish rejected"), "request_id": requestID})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"accepted": true, "stream_sequence": ack.StreamSequence, "request_id": requestID})
		return
	}

	quarantineBytes, qErr := quarantineBytesFor(env, parseErr, decision, body)
	if qErr != nil {
		s.logger.Error("quarantine serialization failed", "request_id", requestID, "error", qErr)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "quarantine serialization failed", "request_id": requestID})
		return
	}

	qAck, err := s.publisher.Publish(r.Context(), quarantineBytes, s.quarantineSubject, correlationID, true)
	if err != nil || !qAck.Accepted {
		s.logger.Error("quarantine publish failed", "request_id", requestID, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": publishErrorMessage(qAck, err, "quarantine publish rejected"), "request_id": requestID})
		return
	}

	status := rejectionStatus(decision.Reason)
	writeJSON(w, status, map[string]any{"error": decision.Reason, "request_id": requestID})
}

// rejectionStatus maps a rejection reason to its HTTP status: 403 when the
// rejection originates from signature or ruleset evaluation (both of which
// only run on structurally valid, authenticated input), 400 otherwise
// (schema or canonicalization failures).
func rejectionStatus(reason string) int {
	if strings.Contains(reason, "signature") || strings.Contains(reason, "ruleset") {
		return http.StatusForbidden
	}
	return http.StatusBadRequest
}

// quarantineBytesFor serializes the rejected envelope for the audit trail.
// If the body failed even envelope.Parse (so there is no Envelope to build
// a fallback from), it canonicalizes nothing and reports the original parse
// error instead.
func quarantineBytesFor(env envelope.Envelope, parseErr error, decision admission.Decision, _ []byte) ([]byte, error) {
	if parseErr != nil {
		return nil, parseErr
	}
	return quarantine.Serialize(env, decision.CanonicalBytes)
}

func publishErrorMessage(ack transport.PublishAck, err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	if ack.ErrorMessage != "" {
		return ack.ErrorMessage
	}
	return fallback
}

func (s *Server) handleQueryState(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	writeJSON(w, http.StatusNotImplemented, map[string]any{"key": key, "state": nil, "status": "stub"})
}

func (s *Server) handleQueryLedger(w http.ResponseWriter, r *http.Request) {
	eventID := mux.Vars(r)["event_id"]
	writeJSON(w, http.StatusNotImplemented, map[string]any{"event_id": eventID, "entry": nil, "status": "stub"})
}

// readBody enforces maxPayloadBytes on the raw body, when set, before any
// JSON parsing happens: http.MaxBytesReader aborts the read (and closes the
// connection) as soon as the limit is crossed, rather than buffering an
// oversized body in full first.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	body := r.Body
	if s.maxPayloadBytes > 0 {
		body = http.MaxBytesReader(w, body, s.maxPayloadBytes)
	}
	return io.ReadAll(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
