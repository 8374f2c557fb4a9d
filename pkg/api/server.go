// Package api pkg/api/server.go exposes the manager controller over HTTP and
// a websocket feed.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/CNES/opensand-sub000/pkg/db"
	"github.com/CNES/opensand-sub000/pkg/manager"
	"github.com/CNES/opensand-sub000/pkg/metrics"
	"github.com/CNES/opensand-sub000/pkg/wire"
)

const (
	defaultHistoryLimit = 1000
	readHeaderTimeout   = 10 * time.Second
)

// APIServer serves the REST endpoints and the live feed.
type APIServer struct {
	ctrl    Controller
	live    LiveData
	history db.Service
	hub     *Hub
	runsDir string
	addr    string
	router  *mux.Router
	srv     *http.Server
	now     func() time.Time
}

// Option configures an APIServer.
type Option func(*APIServer)

// WithHistory serves the stored probe values and events.
func WithHistory(history db.Service) Option {
	return func(s *APIServer) {
		s.history = history
	}
}

// WithRunsDir sets where transferred runs are extracted.
func WithRunsDir(dir string) Option {
	return func(s *APIServer) {
		s.runsDir = dir
	}
}

// NewAPIServer builds the router. hub may be shared with the controller
// observers; it is run by Start.
func NewAPIServer(addr string, ctrl Controller, live LiveData, hub *Hub, opts ...Option) *APIServer {
	s := &APIServer{
		ctrl:    ctrl,
		live:    live,
		hub:     hub,
		runsDir: "runs",
		addr:    addr,
		router:  mux.NewRouter(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()

	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return s
}

func (s *APIServer) setupRoutes() {
	s.router.Use(CommonMiddleware)
	s.router.Use(LoggingMiddleware)

	s.router.HandleFunc("/api/status", s.getSystemStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/api/programs", s.getPrograms).Methods(http.MethodGet)
	s.router.HandleFunc("/api/programs/{id}", s.getProgram).Methods(http.MethodGet)

	// Control endpoints
	s.router.HandleFunc("/api/programs/{id}/probes/{probe}/status", s.updateProbeStatus).
		Methods(http.MethodPut, http.MethodOptions)
	s.router.HandleFunc("/api/programs/{id}/logs/{log}/level", s.updateLogLevel).
		Methods(http.MethodPut, http.MethodOptions)
	s.router.HandleFunc("/api/programs/{id}/logs", s.toggleLogs).Methods(http.MethodPut, http.MethodOptions)
	s.router.HandleFunc("/api/programs/{id}/syslog", s.toggleSyslog).Methods(http.MethodPut, http.MethodOptions)
	s.router.HandleFunc("/api/transfer", s.transfer).Methods(http.MethodPost, http.MethodOptions)

	// Data endpoints
	s.router.HandleFunc("/api/programs/{id}/probes/{probe}/points", s.getPoints).Methods(http.MethodGet)
	s.router.HandleFunc("/api/programs/{id}/probes/{probe}/history", s.getProbeHistory).Methods(http.MethodGet)
	s.router.HandleFunc("/api/programs/{id}/events", s.getEvents).Methods(http.MethodGet)
	s.router.HandleFunc("/api/logs", s.getLogs).Methods(http.MethodGet)

	s.router.Handle("/ws", s.hub)
}

// Handler returns the HTTP handler of the server.
func (s *APIServer) Handler() http.Handler {
	return s.router
}

// Start runs the hub and serves HTTP until Stop.
func (s *APIServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	go s.hub.Run(ctx)

	log.Printf("API server listening on %s", ln.Addr())

	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Stop gracefully shuts the HTTP server down. The websocket clients are
// disconnected when the Start context ends.
func (s *APIServer) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, errProgramNotFound), errors.Is(err, errProbeNotFound),
		errors.Is(err, errLogNotFound), errors.Is(err, errNoHistory):
		status = http.StatusNotFound
	case errors.Is(err, errBadID), errors.Is(err, manager.ErrDisplayDisabled),
		errors.Is(err, wire.ErrUnknownLogLevel):
		status = http.StatusBadRequest
	case errors.Is(err, manager.ErrNoCollector):
		status = http.StatusServiceUnavailable
	}

	http.Error(w, err.Error(), status)
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: request body: %w", errBadID, err)
	}

	return nil
}

func parseID[T uint8 | uint16](vars map[string]string, key string, bits int) (T, error) {
	n, err := strconv.ParseUint(vars[key], 10, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", errBadID, key, vars[key])
	}

	return T(n), nil
}

func (s *APIServer) lookupProgram(r *http.Request) (*manager.Program, error) {
	vars := mux.Vars(r)

	id, err := parseID[uint16](vars, "id", 16)
	if err != nil {
		return nil, err
	}

	prog, ok := s.ctrl.Program(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", errProgramNotFound, id)
	}

	return prog, nil
}

func (s *APIServer) lookupProbe(r *http.Request) (*manager.Probe, error) {
	prog, err := s.lookupProgram(r)
	if err != nil {
		return nil, err
	}

	id, err := parseID[uint8](mux.Vars(r), "probe", 8)
	if err != nil {
		return nil, err
	}

	probe, ok := prog.Probe(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s probe %d", errProbeNotFound, prog.FullName(), id)
	}

	return probe, nil
}

func limitParam(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultHistoryLimit
	}

	return limit
}

func (s *APIServer) getSystemStatus(w http.ResponseWriter, _ *http.Request) {
	status := SystemStatus{
		Functional:   s.ctrl.Functional(),
		Programs:     len(s.ctrl.Programs()),
		ActiveProbes: s.live.ActiveProbes(),
		Clients:      s.hub.ClientCount(),
		LastUpdate:   s.now(),
	}

	if addr, ok := s.ctrl.Collector(); ok {
		status.Collector = addr.String()
	}

	writeJSON(w, http.StatusOK, status)
}

func (s *APIServer) getPrograms(w http.ResponseWriter, _ *http.Request) {
	programs := s.ctrl.Programs()

	views := make([]ProgramView, 0, len(programs))
	for _, p := range programs {
		views = append(views, newProgramView(p))
	}

	writeJSON(w, http.StatusOK, views)
}

func (s *APIServer) getProgram(w http.ResponseWriter, r *http.Request) {
	prog, err := s.lookupProgram(r)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newProgramView(prog))
}

func (s *APIServer) updateProbeStatus(w http.ResponseWriter, r *http.Request) {
	probe, err := s.lookupProbe(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req ProbeStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.ctrl.UpdateProbeStatus(probe, req.Enabled, req.Displayed); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) updateLogLevel(w http.ResponseWriter, r *http.Request) {
	prog, err := s.lookupProgram(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := parseID[uint8](mux.Vars(r), "log", 8)
	if err != nil {
		writeError(w, err)
		return
	}

	l, ok := prog.Log(id)
	if !ok {
		writeError(w, fmt.Errorf("%w: %s log %d", errLogNotFound, prog.FullName(), id))
		return
	}

	var req LogLevelRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	level, err := wire.ParseLogLevel(req.Level)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.ctrl.UpdateLogLevel(l, level); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) toggleLogs(w http.ResponseWriter, r *http.Request) {
	s.toggle(w, r, s.ctrl.EnableLogs)
}

func (s *APIServer) toggleSyslog(w http.ResponseWriter, r *http.Request) {
	s.toggle(w, r, s.ctrl.EnableSyslog)
}

func (s *APIServer) toggle(w http.ResponseWriter, r *http.Request, apply func(*manager.Program, bool) error) {
	prog, err := s.lookupProgram(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req ToggleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := apply(prog, req.Enabled); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) transfer(w http.ResponseWriter, r *http.Request) {
	dest := filepath.Join(s.runsDir, s.now().Format("20060102-150405"))

	if err := s.ctrl.TransferFromCollector(r.Context(), dest); err != nil {
		log.Printf("Transfer failed: %v", err)
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, TransferResponse{Dir: dest})
}

func (s *APIServer) getPoints(w http.ResponseWriter, r *http.Request) {
	probe, err := s.lookupProbe(r)
	if err != nil {
		writeError(w, err)
		return
	}

	points := s.live.Points(probe.FullName())
	if points == nil {
		points = []metrics.Point{}
	}

	writeJSON(w, http.StatusOK, points)
}

func (s *APIServer) getProbeHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, errNoHistory)
		return
	}

	probe, err := s.lookupProbe(r)
	if err != nil {
		writeError(w, err)
		return
	}

	values, err := s.history.GetProbeValues(probe.Program().FullID(), probe.ID(), limitParam(r))
	if err != nil {
		writeError(w, err)
		return
	}

	if values == nil {
		values = []db.ProbeValue{}
	}

	writeJSON(w, http.StatusOK, values)
}

func (s *APIServer) getEvents(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, errNoHistory)
		return
	}

	prog, err := s.lookupProgram(r)
	if err != nil {
		writeError(w, err)
		return
	}

	events, err := s.history.GetEvents(prog.FullID(), limitParam(r))
	if err != nil {
		writeError(w, err)
		return
	}

	if events == nil {
		events = []db.EventRecord{}
	}

	writeJSON(w, http.StatusOK, events)
}

func (s *APIServer) getLogs(w http.ResponseWriter, _ *http.Request) {
	logs := s.live.Logs()
	if logs == nil {
		logs = []metrics.LogEntry{}
	}

	writeJSON(w, http.StatusOK, logs)
}
