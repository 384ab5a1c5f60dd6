// Package security implements the asynchronous security solver: key
// expansion and checksum work offloaded to a remote helper service over
// blocking TCP, run by a bounded worker pool so the main tick loop never
// blocks (spec §4.10). Completion callbacks are delivered on the main
// thread via Update, so they never race with core state (spec §5).
package security

import (
	"context"
	"io"
	"log"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// RequestType identifies a helper-service request (spec §6).
type RequestType uint8

const (
	RequestKeystream RequestType = iota
	RequestChecksum
)

// KeystreamWords is the size of an expanded key table.
const KeystreamWords = 20

// PoolSize is the fixed work-slot count (spec §3 Lifecycles).
const PoolSize = 16

// Callback receives the result words, or nil on failure so the caller can
// decide whether to retry or tear down (spec §7). A keystream result holds
// KeystreamWords entries; a checksum result holds one.
type Callback func(data []uint32)

// WorkState tracks one slot's lifecycle.
type WorkState uint8

const (
	StateIdle WorkState = iota
	StateWorking
	StateSuccess
	StateFailure
)

type work struct {
	id       uuid.UUID
	state    WorkState
	reqType  RequestType
	key      uint32
	result   []uint32
	conn     net.Conn
	callback Callback
}

// Solver owns the 16-slot work pool, the dialing worker goroutines and the
// main-thread completion queue.
type Solver struct {
	Logger *log.Logger

	// Dial is injectable for tests; defaults to net.Dial("tcp", addr).
	Dial func(addr string) (net.Conn, error)

	addr string
	sem  *semaphore.Weighted

	mu   sync.Mutex
	work [PoolSize]work

	completed chan *work
}

// NewSolver returns a solver targeting the helper at addr.
func NewSolver(addr string, logger *log.Logger) *Solver {
	return &Solver{
		Logger:    logger,
		Dial:      func(a string) (net.Conn, error) { return net.Dial("tcp", a) },
		addr:      addr,
		sem:       semaphore.NewWeighted(PoolSize),
		completed: make(chan *work, PoolSize),
	}
}

// allocate reserves an idle slot, or nil when the pool is exhausted (spec
// §7: resource exhaustion returns false to the caller).
func (s *Solver) allocate() *work {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.work {
		if s.work[i].state == StateIdle {
			s.work[i] = work{id: uuid.New(), state: StateWorking}
			return &s.work[i]
		}
	}
	return nil
}

func (s *Solver) free(w *work) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*w = work{}
}

// ExpandKey requests the 20-word keystream table for key2. Returns false
// when the pool is full.
func (s *Solver) ExpandKey(key2 uint32, cb Callback) bool {
	return s.submit(RequestKeystream, key2, cb)
}

// GetChecksum requests the helper's checksum for key. Returns false when
// the pool is full.
func (s *Solver) GetChecksum(key uint32, cb Callback) bool {
	return s.submit(RequestChecksum, key, cb)
}

func (s *Solver) submit(t RequestType, key uint32, cb Callback) bool {
	w := s.allocate()
	if w == nil {
		if s.Logger != nil {
			s.Logger.Printf("security: work pool exhausted, dropping request %#x", key)
		}
		return false
	}
	w.reqType = t
	w.key = key
	w.callback = cb

	go s.run(w)
	return true
}

// run executes one request on a worker goroutine: dial, blocking
// send/receive, deposit the result into the owned slot, announce on the
// completion queue. The semaphore bounds concurrent dials to the pool size.
func (s *Solver) run(w *work) {
	if err := s.sem.Acquire(context.Background(), 1); err != nil {
		s.fail(w, err)
		return
	}
	defer s.sem.Release(1)

	conn, err := s.Dial(s.addr)
	if err != nil {
		s.fail(w, errors.Wrap(err, "security: connect"))
		return
	}

	s.mu.Lock()
	w.conn = conn
	cleared := w.state != StateWorking
	s.mu.Unlock()
	if cleared {
		conn.Close()
		s.completed <- w
		return
	}

	result, err := roundTrip(conn, w.reqType, w.key)
	conn.Close()

	s.mu.Lock()
	if err != nil {
		w.state = StateFailure
	} else {
		w.state = StateSuccess
		w.result = result
	}
	s.mu.Unlock()

	if err != nil && s.Logger != nil {
		s.Logger.Printf("security: request %s for %#x failed: %v", w.id, w.key, err)
	}
	s.completed <- w
}

func (s *Solver) fail(w *work, err error) {
	if s.Logger != nil {
		s.Logger.Printf("security: request %s for %#x failed: %v", w.id, w.key, err)
	}
	s.mu.Lock()
	w.state = StateFailure
	s.mu.Unlock()
	s.completed <- w
}

// roundTrip performs the blocking request/response exchange (spec §6 wire
// protocol, little-endian).
func roundTrip(conn net.Conn, t RequestType, key uint32) ([]uint32, error) {
	req := EncodeRequest(t, key)
	if _, err := conn.Write(req); err != nil {
		return nil, errors.Wrap(err, "security: send request")
	}

	respSize := ChecksumResponseSize
	if t == RequestKeystream {
		respSize = KeystreamResponseSize
	}
	buf := make([]byte, respSize)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return nil, errors.Wrap(err, "security: partial response")
	}

	return ParseResponse(t, key, buf)
}

// Update drains completed work on the main thread, invoking callbacks with
// the result words or nil on failure, then returns the slots to the pool.
func (s *Solver) Update() {
	for {
		select {
		case w := <-s.completed:
			s.mu.Lock()
			ok := w.state == StateSuccess
			result := w.result
			cb := w.callback
			s.mu.Unlock()

			if cb != nil {
				if ok {
					cb(result)
				} else {
					cb(nil)
				}
			}
			s.free(w)
		default:
			return
		}
	}
}

// ClearWork force-closes every outstanding socket so the blocked workers
// fail fast; their completions then surface as failures through Update
// (spec §3: "ClearWork aborts outstanding sockets").
func (s *Solver) ClearWork() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.work {
		w := &s.work[i]
		if w.state == StateWorking {
			w.state = StateFailure
			if w.conn != nil {
				w.conn.Close()
			}
		}
	}
}
