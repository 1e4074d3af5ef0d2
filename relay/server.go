package relay

import (
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"pongrelay/wire"
)

// Server is the lobby-rendezvous TCP relay: it accepts connections,
// speaks the 5-byte create/join lobby protocol, and once two peers are
// paired, funnels input frames between them until either disconnects.
type Server struct {
	addr     string
	registry *Registry
	log      *zap.Logger
	hostWait time.Duration
}

// NewServer builds a relay bound to addr. hostWait of zero falls back
// to DefaultHostWait.
func NewServer(addr string, hostWait time.Duration, log *zap.Logger) *Server {
	if hostWait <= 0 {
		hostWait = DefaultHostWait
	}
	return &Server{
		addr:     addr,
		registry: NewRegistry(),
		log:      log,
		hostWait: hostWait,
	}
}

// ListenAndServe binds addr and serves connections until the process
// exits. An Accept failure is logged and retried after a one-second
// back-off; the method returns only if binding addr fails.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("relay: failed to listen at %s: %w", s.addr, err)
	}
	defer ln.Close()

	s.log.Info("relay listening", zap.String("addr", s.addr))

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.log.Error("accept failed, backing off", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		go s.handle(conn)
	}
}

// handle reads one lobby command from a freshly accepted connection
// and dispatches it. A malformed or unrecognized command drops the
// connection; there is no retry at this layer; a client that wants
// another attempt reconnects.
func (s *Server) handle(conn net.Conn) {
	var buf [wire.CommandSize]byte
	if _, err := readFull(conn, buf[:]); err != nil {
		s.log.Debug("failed to read lobby command, dropping connection",
			zap.Error(err), zap.String("remote", conn.RemoteAddr().String()))
		conn.Close()
		return
	}

	cmd := wire.DecodeCommand(buf)
	switch cmd.Op {
	case wire.OpCreateLobby:
		s.handleCreate(conn)
	case wire.OpJoinLobby:
		s.handleJoin(conn, cmd.Code)
	default:
		s.log.Warn("unknown lobby opcode, dropping connection", zap.Uint8("op", cmd.Op))
		conn.Close()
	}
}

// handleCreate allocates a lobby code, replies with it, then waits
// (bounded by s.hostWait) for a joiner to be handed off by
// handleJoin. Once paired, this goroutine owns funneling input frames
// between the two connections for the lifetime of the match.
func (s *Server) handleCreate(conn net.Conn) {
	code, handoff, err := s.registry.Create()
	if err != nil {
		s.log.Error("failed to allocate lobby", zap.Error(err))
		conn.Close()
		return
	}

	reply := wire.EncodeCode(code)
	if _, err := conn.Write(reply[:]); err != nil {
		s.log.Debug("failed to send lobby code to host", zap.Error(err))
		s.registry.Cancel(code)
		conn.Close()
		return
	}
	s.log.Info("lobby created", zap.Int32("code", code))

	select {
	case peer := <-handoff:
		if _, err := conn.Write([]byte{wire.PeerJoinedSignal}); err != nil {
			s.log.Debug("failed to signal host of joiner", zap.Error(err))
			conn.Close()
			peer.Close()
			return
		}
		s.log.Info("lobby paired", zap.Int32("code", code))
		s.funnel(conn, peer)

	case <-time.After(s.hostWait):
		s.log.Info("lobby timed out waiting for a joiner", zap.Int32("code", code))
		s.registry.Cancel(code)
		conn.Close()
	}
}

// handleJoin looks up the requested lobby and, if it exists, replies
// JoinOK and hands this connection off to the host's handleCreate
// goroutine, which takes over ownership of it. The status reply is
// always written before the handoff, so no two goroutines ever write
// to conn concurrently.
func (s *Server) handleJoin(conn net.Conn, code int32) {
	if !s.registry.Exists(code) {
		reply := wire.EncodeJoinStatus(wire.JoinUnknown)
		conn.Write(reply[:])
		conn.Close()
		return
	}

	reply := wire.EncodeJoinStatus(wire.JoinOK)
	if _, err := conn.Write(reply[:]); err != nil {
		s.log.Debug("failed to send join-ok status", zap.Error(err))
		conn.Close()
		return
	}

	if !s.registry.Join(code, conn) {
		// The host's wait expired between Exists and Join; nobody is
		// left to receive this connection.
		s.log.Info("lobby vanished before handoff completed", zap.Int32("code", code))
		conn.Close()
		return
	}

	// Ownership of conn now belongs to the host's funnel loop.
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := conn.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
