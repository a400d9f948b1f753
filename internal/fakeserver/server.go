// Package fakeserver provides an in-process REST and websocket backend for
// tests.
//
// Records are kept as loosely typed JSON objects per resource and addressed
// by the slash-joined values of their identifier fields, the same layout the
// client's REST transport produces. Every successful write is broadcast to
// connected live feeds.
//
// Failures can be injected per method and resource with Fail.
package fakeserver

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/dataspace/mirror/pkg/models"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	gorilla "github.com/gorilla/websocket"
)

type record map[string]any

// keyFields lists identifier fields in path order. Users are keyed by "id".
var keyFields = []string{models.FieldSpaceID, models.FieldDatasetID, models.FieldFileID, models.FieldItemID, "id"}

// Failure is returned instead of the normal response.
type Failure struct {
	Status int
	// Message is sent as a JSON {"message": ...} body. An empty message
	// sends a plain text body.
	Message string
}

type Server struct {
	srv      *httptest.Server
	upgrader gorilla.Upgrader

	mu       sync.Mutex
	records  map[string][]record
	contents map[string][]byte
	failures map[string]Failure
	hits     map[string]int

	connMu sync.Mutex
	conns  map[*gorilla.Conn]bool
}

// New starts a server. Close it when done.
func New() *Server {
	s := &Server{
		records:  map[string][]record{},
		contents: map[string][]byte{},
		failures: map[string]Failure{},
		hits:     map[string]int{},
		conns:    map[*gorilla.Conn]bool{},
	}

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/live", s.handleLive).Methods(http.MethodGet)
	api.HandleFunc("/files/{path:.+}/content", s.handleContent).Methods(http.MethodGet)
	api.HandleFunc("/{resource}", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/{resource}", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/{resource}/{path:.+}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/{resource}/{path:.+}", s.handleUpdate).Methods(http.MethodPut)
	api.HandleFunc("/{resource}/{path:.+}", s.handleDelete).Methods(http.MethodDelete)

	s.srv = httptest.NewServer(router)
	return s
}

// URL is the API base, e.g. "http://127.0.0.1:41234/api".
func (s *Server) URL() string {
	return s.srv.URL + "/api"
}

func (s *Server) Close() {
	s.connMu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.connMu.Unlock()
	s.srv.Close()
}

// Seed stores items under resource as they marshal to JSON.
func (s *Server) Seed(resource string, items ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return err
		}
		var r record
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		s.records[resource] = append(s.records[resource], r)
	}
	return nil
}

// SetContent stores the raw bytes of the file with the given id.
func (s *Server) SetContent(id models.ID, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contents[id.Path()] = data
}

// Fail makes every method request on resource fail until ClearFailures.
func (s *Server) Fail(method, resource string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+resource] = f
}

func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.failures)
}

// Hits counts requests by method and resource, failed ones included.
func (s *Server) Hits(method, resource string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+resource]
}

// Len is the number of records held for resource.
func (s *Server) Len(resource string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records[resource])
}

// Broadcast sends an event to every connected live feed.
func (s *Server) Broadcast(typ, resource string, item any) {
	msg, err := json.Marshal(map[string]any{"type": typ, "kind": kindName(resource), "item": item})
	if err != nil {
		return
	}
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for c := range s.conns {
		if err := c.WriteMessage(gorilla.TextMessage, msg); err != nil {
			_ = c.Close()
			delete(s.conns, c)
		}
	}
}

// Feeds is the number of connected live feeds.
func (s *Server) Feeds() int {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return len(s.conns)
}

func kindName(resource string) string {
	for _, k := range models.Kinds() {
		if k.Resource() == resource {
			return k.Name()
		}
	}
	return resource
}

func pathOf(r record) string {
	var parts []string
	for _, name := range keyFields {
		if v, ok := r[name].(string); ok && v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "/")
}

// before records the hit and reports an injected failure, if any.
func (s *Server) before(w http.ResponseWriter, method, resource string) bool {
	s.mu.Lock()
	key := method + " " + resource
	s.hits[key]++
	f, failed := s.failures[key]
	s.mu.Unlock()

	if !failed {
		return false
	}
	if f.Message == "" {
		http.Error(w, http.StatusText(f.Status), f.Status)
		return true
	}
	respondError(w, f.Status, f.Message)
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.connMu.Lock()
	s.conns[conn] = true
	s.connMu.Unlock()

	// Drain until the client goes away so close frames are answered.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.connMu.Lock()
	delete(s.conns, conn)
	s.connMu.Unlock()
	_ = conn.Close()
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	if s.before(w, r.Method, "content") {
		return
	}
	path := mux.Vars(r)["path"]

	s.mu.Lock()
	data, ok := s.contents[path]
	s.mu.Unlock()
	if !ok {
		respondError(w, http.StatusNotFound, "content not found")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	resource := mux.Vars(r)["resource"]
	if s.before(w, r.Method, resource) {
		return
	}
	query := r.URL.Query()

	s.mu.Lock()
	var out []record
	for _, rec := range s.records[resource] {
		if matches(rec, query) {
			out = append(out, rec)
		}
	}
	s.mu.Unlock()
	respondPage(w, http.StatusOK, out...)
}

func matches(rec record, query map[string][]string) bool {
	for k, values := range query {
		if len(values) == 0 {
			continue
		}
		if fmt.Sprint(rec[k]) != values[0] {
			return false
		}
	}
	return true
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if s.before(w, r.Method, vars["resource"]) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.find(vars["resource"], vars["path"]); i >= 0 {
		respondPage(w, http.StatusOK, s.records[vars["resource"]][i])
		return
	}
	respondPage(w, http.StatusOK)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	resource := mux.Vars(r)["resource"]
	if s.before(w, r.Method, resource) {
		return
	}

	var rec record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	key := models.FieldItemID
	if resource == "users" {
		key = "id"
	}
	if v, _ := rec[key].(string); v == "" {
		rec[key] = uuid.NewString()
	}

	var content []byte
	if encoded, ok := rec["content"].(string); ok {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			respondError(w, http.StatusBadRequest, "content is not base64")
			return
		}
		content = data
		delete(rec, "content")
		rec["size"] = len(data)
	}

	path := pathOf(rec)
	s.mu.Lock()
	if s.find(resource, path) >= 0 {
		s.mu.Unlock()
		respondError(w, http.StatusConflict, fmt.Sprintf("%s %s already exists", resource, path))
		return
	}
	s.records[resource] = append(s.records[resource], rec)
	if content != nil {
		s.contents[path] = content
	}
	s.mu.Unlock()

	s.Broadcast("CREATE", resource, rec)
	respondPage(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	resource := vars["resource"]
	if s.before(w, r.Method, resource) {
		return
	}

	var patch record
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	s.mu.Lock()
	i := s.find(resource, vars["path"])
	if i < 0 {
		s.mu.Unlock()
		respondPage(w, http.StatusOK)
		return
	}
	rec := make(record, len(patch))
	for k, v := range s.records[resource][i] {
		rec[k] = v
	}
	for k, v := range patch {
		if isKeyField(k) {
			continue
		}
		rec[k] = v
	}
	s.records[resource][i] = rec
	s.mu.Unlock()

	s.Broadcast("UPDATE", resource, rec)
	respondPage(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	resource := vars["resource"]
	if s.before(w, r.Method, resource) {
		return
	}

	s.mu.Lock()
	i := s.find(resource, vars["path"])
	if i < 0 {
		s.mu.Unlock()
		respondPage(w, http.StatusOK)
		return
	}
	rec := s.records[resource][i]
	s.records[resource] = append(s.records[resource][:i:i], s.records[resource][i+1:]...)
	delete(s.contents, vars["path"])
	s.mu.Unlock()

	s.Broadcast("DELETE", resource, rec)
	respondPage(w, http.StatusOK, rec)
}

// find must be called with mu held.
func (s *Server) find(resource, path string) int {
	for i, rec := range s.records[resource] {
		if pathOf(rec) == path {
			return i
		}
	}
	return -1
}

func isKeyField(name string) bool {
	for _, k := range keyFields {
		if k == name {
			return true
		}
	}
	return false
}

func respondPage(w http.ResponseWriter, status int, items ...record) {
	if items == nil {
		items = []record{}
	}
	respondJSON(w, status, map[string]any{"count": len(items), "items": items})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}
