package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/chatter/pkg/domain"
)

// allTenants is the subscription key of watchers that did not name a tenant.
const allTenants = "*"

// streamBuffer is how many events a slow watcher may lag behind before drops start.
const streamBuffer = 16

// StreamManager fans lifecycle events out to live dashboard watchers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{} // tenant -> set of channels
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
	}
}

// Subscribe registers a watcher for tenant ("" watches every tenant).
// The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(tenant string) (<-chan string, func()) {
	if tenant == "" {
		tenant = allTenants
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, streamBuffer)
	if _, ok := sm.subscribers[tenant]; !ok {
		sm.subscribers[tenant] = make(map[chan string]struct{})
	}
	sm.subscribers[tenant][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[tenant]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, tenant)
				}
			}
		})
	}
}

// Broadcast sends msg to the tenant's watchers and to the all-tenant watchers.
// Full buffers drop the message.
func (sm *StreamManager) Broadcast(tenant, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, key := range []string{tenant, allTenants} {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				slog.Warn("SSE: client buffer full, dropping event", "tenant", key)
			}
		}
		if tenant == allTenants {
			break
		}
	}
}

type streamEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

func (sm *StreamManager) publish(tenant, name string, data any, err error) {
	ev := streamEvent{Event: name, Data: data}
	if err != nil {
		ev.Error = err.Error()
	}
	b, mErr := json.Marshal(ev)
	if mErr != nil {
		return
	}
	sm.Broadcast(tenant, string(b))
}

// Hooks returns lifecycle hooks that broadcast every event.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnResolve: func(_ context.Context, e *domain.ResolveEvent) {
			sm.publish(e.ClientID, "resolve", e, e.Err)
		},
		OnSubmission: func(_ context.Context, e *domain.SubmissionEvent) {
			sm.publish(e.ClientID, "submission", e, e.Err)
		},
	}
}

// subscribeEvents handles GET /api/v1/events/ (SSE). The tenant comes from the client_id
// query parameter, since EventSource cannot set headers, or from the X-Client-ID header.
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	tenantID := strings.TrimSpace(r.URL.Query().Get("client_id"))
	if tenantID == "" {
		tenantID = tenant(r)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe(tenantID)
	defer cancel()
	s.logger.Info("SSE: watcher connected", "tenant", tenantID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: watcher disconnected", "tenant", tenantID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
