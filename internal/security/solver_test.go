package security

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"
)

// fakeHelper answers the helper protocol: keystream tables are key2+i,
// checksums are key^0xABCD.
func fakeHelper(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				req := make([]byte, RequestSize)
				if _, err := io.ReadFull(c, req); err != nil {
					return
				}
				key := binary.LittleEndian.Uint32(req[1:])
				switch RequestType(req[0]) {
				case RequestKeystream:
					resp := make([]byte, KeystreamResponseSize)
					resp[0] = byte(RequestKeystream)
					binary.LittleEndian.PutUint32(resp[1:], key)
					for i := 0; i < KeystreamWords; i++ {
						binary.LittleEndian.PutUint32(resp[5+i*4:], key+uint32(i))
					}
					c.Write(resp)
				case RequestChecksum:
					resp := make([]byte, ChecksumResponseSize)
					resp[0] = byte(RequestChecksum)
					binary.LittleEndian.PutUint32(resp[1:], key)
					binary.LittleEndian.PutUint32(resp[5:], key^0xABCD)
					c.Write(resp)
				}
			}(conn)
		}
	}()
	return ln
}

// drain pumps Update until done reports true or the deadline passes.
func drain(t *testing.T, s *Solver, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !done() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for completion")
		}
		s.Update()
		time.Sleep(time.Millisecond)
	}
}

func TestExpandKey(t *testing.T) {
	ln := fakeHelper(t)
	defer ln.Close()

	s := NewSolver(ln.Addr().String(), nil)

	var got []uint32
	ok := s.ExpandKey(0x1000, func(data []uint32) { got = data })
	if !ok {
		t.Fatal("ExpandKey rejected with empty pool")
	}

	drain(t, s, func() bool { return got != nil })

	if len(got) != KeystreamWords {
		t.Fatalf("table has %d words, want %d", len(got), KeystreamWords)
	}
	for i, v := range got {
		if v != 0x1000+uint32(i) {
			t.Fatalf("table[%d] = %#x, want %#x", i, v, 0x1000+uint32(i))
		}
	}
}

func TestGetChecksum(t *testing.T) {
	ln := fakeHelper(t)
	defer ln.Close()

	s := NewSolver(ln.Addr().String(), nil)

	result := uint32(0)
	delivered := false
	s.GetChecksum(0x42, func(data []uint32) {
		delivered = true
		if data != nil {
			result = data[0]
		}
	})

	drain(t, s, func() bool { return delivered })

	if result != 0x42^0xABCD {
		t.Errorf("checksum = %#x, want %#x", result, 0x42^0xABCD)
	}
}

func TestConnectFailureInvokesNilCallback(t *testing.T) {
	// A closed listener port: connect fails, callback must still fire with
	// nil so the caller can decide to retry or tear down.
	ln := fakeHelper(t)
	addr := ln.Addr().String()
	ln.Close()

	s := NewSolver(addr, nil)

	called := false
	var payload []uint32
	s.GetChecksum(1, func(data []uint32) {
		called = true
		payload = data
	})

	drain(t, s, func() bool { return called })

	if payload != nil {
		t.Error("failure callback received a payload")
	}
}

func TestPoolExhaustion(t *testing.T) {
	// A helper that never answers keeps every slot Working.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn // hold open, never reply
		}
	}()

	s := NewSolver(ln.Addr().String(), nil)

	for i := 0; i < PoolSize; i++ {
		if !s.GetChecksum(uint32(i), func([]uint32) {}) {
			t.Fatalf("request %d rejected before pool was full", i)
		}
	}
	if s.GetChecksum(99, func([]uint32) {}) {
		t.Error("request accepted with a full pool")
	}

	// ClearWork aborts the stalled sockets; every callback completes as a
	// failure and the pool refills.
	s.ClearWork()
	drain(t, s, func() bool {
		s.mu.Lock()
		idle := 0
		for i := range s.work {
			if s.work[i].state == StateIdle {
				idle++
			}
		}
		s.mu.Unlock()
		return idle == PoolSize
	})

	if !s.GetChecksum(100, func([]uint32) {}) {
		t.Error("pool did not recover after ClearWork")
	}
}
