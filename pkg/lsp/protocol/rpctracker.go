package protocol

import (
	"context"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"
)

// RPCMessage is one request or response seen by the server.
type RPCMessage struct {
	Method   string
	Request  *jrpc2.Request
	Response *jrpc2.Response
	Time     time.Time
}

// RPCTracker records the traffic of a server. Responses are matched to the
// method of the request with the same id.
type RPCTracker struct {
	mu       sync.RWMutex
	messages []RPCMessage
	methods  map[string]string
}

var _ jrpc2.RPCLogger = (*RPCTracker)(nil)

func NewRPCTracker() *RPCTracker {
	return &RPCTracker{methods: map[string]string{}}
}

func (t *RPCTracker) LogRequest(ctx context.Context, req *jrpc2.Request) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !req.IsNotification() {
		t.methods[req.ID()] = req.Method()
	}
	t.messages = append(t.messages, RPCMessage{Method: req.Method(), Request: req, Time: time.Now()})
}

func (t *RPCTracker) LogResponse(ctx context.Context, resp *jrpc2.Response) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, RPCMessage{Method: t.methods[resp.ID()], Response: resp, Time: time.Now()})
}

// Requests lists the methods received, in arrival order.
func (t *RPCTracker) Requests() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []string
	for _, m := range t.messages {
		if m.Request != nil {
			out = append(out, m.Method)
		}
	}
	return out
}

// Failed lists the methods whose response carried an error.
func (t *RPCTracker) Failed() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []string
	for _, m := range t.messages {
		if m.Response != nil && m.Response.Error() != nil {
			out = append(out, m.Method)
		}
	}
	return out
}
