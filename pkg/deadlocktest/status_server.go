package deadlocktest

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultStatusReadHeaderTimeout = 5 * time.Second
	DefaultStatusWriteTimeout      = 11 * time.Second
	DefaultStatusIdleTimeout       = 120 * time.Second

	StatusPath = "/status"
)

// Status is what the HTTP status endpoint reports.
type Status struct {
	Mode        string `json:"mode"`
	Received    int    `json:"received"`
	Responses   int64  `json:"responses"`
	OpenStreams int64  `json:"openStreams"`
	Edges       int    `json:"edges"`
}

// Status returns a snapshot of the counters of s.
func (s *Server) Status() Status {
	return Status{
		Mode:        s.mode.String(),
		Received:    s.ReceivedCount(),
		Responses:   s.Responses(),
		OpenStreams: s.OpenStreams(),
		Edges:       s.detector.Edges(),
	}
}

func newStatusServer(s *Server) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc(StatusPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.Status()); err != nil {
			s.logger.Warn("could not write status", zap.Error(err))
		}
	})
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: DefaultStatusReadHeaderTimeout,
		WriteTimeout:      DefaultStatusWriteTimeout,
		IdleTimeout:       DefaultStatusIdleTimeout,
	}
}
