package statsingest

import (
	"fmt"
	"net"
	"time"

	lj "github.com/elastic/go-lumber/lj"
	srv2 "github.com/elastic/go-lumber/server/v2"
)

// Server receives finalized partition statistics over the lumberjack
// protocol and feeds them into a Store, directly mirroring the teacher's
// ingestor.TCPIngestor (listener setup, ACK-on-receive loop, batch
// draining) with access-log parsing swapped for PartitionStatEvent decoding.
type Server struct {
	listener    net.Listener
	readTimeout time.Duration
	events      chan *lj.Batch
	server      *srv2.Server
	store       *Store
}

// NewServer binds addr and prepares to receive PartitionStatEvent batches
// into store. Call Accept to start serving.
func NewServer(addr string, readTimeout time.Duration, store *Store) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("statsingest: failed to listen on %s: %w", addr, err)
	}
	return &Server{
		listener:    ln,
		readTimeout: readTimeout,
		events:      make(chan *lj.Batch, 1000),
		store:       store,
	}, nil
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Accept starts the lumberjack v2 server and a goroutine that decodes every
// received batch into the Store, ACKing each batch once queued.
func (s *Server) Accept() error {
	srv, err := srv2.NewWithListener(
		s.listener,
		srv2.Timeout(s.readTimeout),
	)
	if err != nil {
		return fmt.Errorf("statsingest: failed to create lumberjack server: %w", err)
	}
	s.server = srv

	go func() {
		for batch := range s.server.ReceiveChan() {
			s.events <- batch
			batch.ACK()
		}
		close(s.events)
	}()

	go s.drain()

	return nil
}

func (s *Server) drain() {
	for batch := range s.events {
		for _, evt := range batch.Events {
			m, ok := evt.(map[string]any)
			if !ok {
				continue
			}
			event, err := decodeEvent(m)
			if err != nil {
				continue
			}
			s.store.Ingest(event)
		}
	}
}

// Close shuts down the server and listener.
func (s *Server) Close() error {
	if s.server != nil {
		s.server.Close()
	}
	return s.listener.Close()
}

func decodeEvent(m map[string]any) (PartitionStatEvent, error) {
	var e PartitionStatEvent

	jobID, ok := m["job_id"].(string)
	if !ok {
		return e, fmt.Errorf("statsingest: missing job_id")
	}
	vertexID, ok := m["vertex_id"].(string)
	if !ok {
		return e, fmt.Errorf("statsingest: missing vertex_id")
	}
	resultID, ok := m["result_id"].(string)
	if !ok {
		return e, fmt.Errorf("statsingest: missing result_id")
	}
	e.JobID = jobID
	e.VertexID = vertexID
	e.ResultID = resultID

	e.PartitionIndex = intField(m, "partition_index")
	e.NumPartitions = intField(m, "num_partitions")
	e.NumSubpartitions = intField(m, "num_subpartitions")

	if raw, ok := m["subpartition_bytes"].([]any); ok {
		e.SubpartitionBytes = make([]int64, len(raw))
		for i, v := range raw {
			e.SubpartitionBytes[i] = int64Field(v)
		}
	}

	if v, ok := m["broadcast"].(bool); ok {
		e.Broadcast = v
	}
	if v, ok := m["pointwise"].(bool); ok {
		e.Pointwise = v
	}

	return e, nil
}

func intField(m map[string]any, key string) int {
	return int(int64Field(m[key]))
}

func int64Field(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
