package testutil

import (
	"context"
	"fmt"
	"sync"
)

// Call records one request the scripted client received.
type Call struct {
	Method   string
	Endpoint string
	Payload  []byte
}

// Response scripts one reply. Err takes precedence over Body.
type Response struct {
	Body []byte
	Err  error
}

// ScriptedClient implements queue.Client with canned responses.
//
// Responses are matched by "METHOD endpoint" key; unmatched requests pop
// from the Default list in order, and an exhausted script returns an
// error so a test never silently succeeds on an unexpected request.
type ScriptedClient struct {
	mu        sync.Mutex
	ByRequest map[string][]Response
	Default   []Response
	Calls     []Call
}

// NewScriptedClient creates an empty script.
func NewScriptedClient() *ScriptedClient {
	return &ScriptedClient{ByRequest: make(map[string][]Response)}
}

// Script appends a response for "METHOD endpoint".
func (c *ScriptedClient) Script(method, endpoint string, r Response) *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := method + " " + endpoint
	c.ByRequest[key] = append(c.ByRequest[key], r)
	return c
}

// ScriptDefault appends a fallback response for any unmatched request.
func (c *ScriptedClient) ScriptDefault(r Response) *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Default = append(c.Default, r)
	return c
}

// Do implements queue.Client.
func (c *ScriptedClient) Do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Calls = append(c.Calls, Call{Method: method, Endpoint: endpoint, Payload: payload})

	key := method + " " + endpoint
	if rs := c.ByRequest[key]; len(rs) > 0 {
		r := rs[0]
		c.ByRequest[key] = rs[1:]
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Body, nil
	}
	if len(c.Default) > 0 {
		r := c.Default[0]
		c.Default = c.Default[1:]
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Body, nil
	}
	return nil, fmt.Errorf("scripted client: no response for %s", key)
}

// CallCount returns how many requests were issued.
func (c *ScriptedClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Calls)
}
