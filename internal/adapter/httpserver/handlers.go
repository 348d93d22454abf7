package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fairyhunter13/ai-provider-router/internal/domain"
)

const (
	defaultMaxBody = 1 << 20
	readyzTimeout  = 2 * time.Second
	streamChunk    = 4096
)

func (s *Server) maxBody() int64 {
	if s.Cfg.MaxRequestBytes > 0 {
		return s.Cfg.MaxRequestBytes
	}
	return defaultMaxBody
}

// decodeBody reads a size-capped JSON body and validates it.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody())
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
				Code: "PAYLOAD_TOO_LARGE", Message: "payload too large", Details: map[string]int64{"max_bytes": mbe.Limit},
			}})
			return false
		}
		if errors.Is(err, io.EOF) {
			writeError(w, r, fmt.Errorf("%w: empty body", domain.ErrInvalidArgument), nil)
			return false
		}
		writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
		return false
	}
	if err := getValidator().Struct(dst); err != nil {
		writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
		return false
	}
	return true
}

// ChatHandler routes one completion. Streaming requests always answer
// text/plain; the rest answer JSON.
func (s *Server) ChatHandler() http.HandlerFunc {
	type response struct {
		Provider domain.ProviderID `json:"provider"`
		Model    string            `json:"model,omitempty"`
		Content  string            `json:"content"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body chatRequest
		if !s.decodeBody(w, r, &body) {
			return
		}
		req, err := body.toRoutingRequest()
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		req.Credentials = req.Credentials.WithFallback(s.Cfg.FallbackCredentials())
		req.CallerID = callerID(r.Header.Get("X-User-Id"))

		res, err := s.Router.Route(r.Context(), req)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		if res.Model != "" {
			w.Header().Set("X-Model", res.Model)
		}
		w.Header().Set("X-Provider", string(res.Provider))
		if req.Stream || res.IsStream() {
			writeText(w, r, res)
			return
		}
		writeJSON(w, http.StatusOK, response{Provider: res.Provider, Model: res.Model, Content: res.Text})
	}
}

// writeText sends a completion as chunked plain text, flushing after every
// chunk read from a stream.
func writeText(w http.ResponseWriter, r *http.Request, res domain.Completion) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if !res.IsStream() {
		_, _ = io.WriteString(w, res.Text)
		return
	}
	defer func() { _ = res.Stream.Close() }()

	rc := http.NewResponseController(w)
	buf := make([]byte, streamChunk)
	for {
		n, err := res.Stream.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				LoggerFrom(r).Warn("stream write failed", slog.Any("error", werr))
				return
			}
			_ = rc.Flush()
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			// Headers are gone; the truncated body is all the caller gets.
			LoggerFrom(r).Warn("provider stream interrupted",
				slog.String("provider", string(res.Provider)),
				slog.Any("error", err))
			return
		}
	}
}

// KeysCheckHandler probes the caller's keys, falling back to the deployment
// keys for providers the caller left out.
func (s *Server) KeysCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body keysCheckRequest
		if !s.decodeBody(w, r, &body) {
			return
		}
		creds, err := parseCredentials(body.Credentials)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, s.Keys.Check(r.Context(), creds.WithFallback(s.Cfg.FallbackCredentials())))
	}
}

// KeysStatusHandler reports which deployment keys are configured.
func (s *Server) KeysStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, s.Keys.Status(s.Cfg.FallbackCredentials()))
	}
}

// HealthzHandler is a liveness probe.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler probes the optional dependencies that are configured.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
		defer cancel()
		probes := []struct {
			name string
			fn   func(context.Context) error
		}{{"db", s.DBCheck}, {"redis", s.RedisCheck}}

		checks := make([]check, 0, len(probes))
		st := http.StatusOK
		for _, p := range probes {
			if p.fn == nil {
				continue
			}
			if err := p.fn(ctx); err != nil {
				checks = append(checks, check{Name: p.name, Details: err.Error()})
				st = http.StatusServiceUnavailable
				continue
			}
			checks = append(checks, check{Name: p.name, OK: true})
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
