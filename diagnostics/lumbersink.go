package diagnostics

import (
	"fmt"
	"time"

	lumber "github.com/elastic/go-lumber/client/v2"
)

// LumberSink ships diagnostic records to a remote collector over the
// lumberjack protocol, the client-side counterpart of the server the
// teacher's ingestor package runs. Used for deployments that centralize
// scheduler diagnostics off the process emitting them.
type LumberSink struct {
	client *lumber.SyncClient
}

// DialLumberSink connects to a lumberjack-protocol collector at addr.
func DialLumberSink(addr string, timeout time.Duration) (*LumberSink, error) {
	client, err := lumber.SyncDial(addr, lumber.Timeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("diagnostics: failed to dial lumber collector at %s: %w", addr, err)
	}
	return &LumberSink{client: client}, nil
}

// Log sends one record as a single-event lumberjack batch. Send errors are
// swallowed: the logging sink is non-structural and must never affect the
// decider's return value.
func (s *LumberSink) Log(level Level, vertexID, message string, fields map[string]any) {
	event := map[string]any{
		"@timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"level":      level.String(),
		"vertex_id":  vertexID,
		"message":    message,
	}
	for k, v := range fields {
		event[k] = v
	}
	_, _ = s.client.Send([]any{event})
}

// Close releases the underlying connection.
func (s *LumberSink) Close() error {
	return s.client.Close()
}
