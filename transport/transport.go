// Package transport isolates the rollback engine and the relay's
// funnel loop from the specifics of a net.Conn: sending one fixed-size
// input record (blocking), and trying to receive zero-or-more records
// without ever blocking the caller.
package transport

import (
	"errors"
	"net"
	"time"

	"pongrelay/wire"
)

// pollDeadline is how far in the future TryRecvOne pushes the read
// deadline on every call once SetNonBlocking has been called. net.Conn has no native
// would-block mode; a short, repeatedly-renewed read deadline is the
// idiomatic Go stand-in, and is cheap enough to set once per attempt.
const pollDeadline = 1 * time.Millisecond

// Transport wraps a net.Conn for exchanging wire.InputFrame records.
type Transport struct {
	conn        net.Conn
	nonBlocking bool
}

// New wraps conn. The transport starts in blocking mode; call
// SetNonBlocking before using TryRecvOne in a tick loop.
func New(conn net.Conn) *Transport {
	return &Transport{conn: conn}
}

// Conn returns the underlying connection, e.g. for Close or for the
// relay to hand it off to another worker.
func (t *Transport) Conn() net.Conn { return t.conn }

// SetNonBlocking switches the transport to non-blocking semantics for
// subsequent TryRecvOne calls.
func (t *Transport) SetNonBlocking() {
	t.nonBlocking = true
}

// Send writes one InputFrame record. This is a small, blocking write:
// at most one 8-byte record is produced per simulation tick, so no
// backpressure handling is needed.
func (t *Transport) Send(frame wire.InputFrame) error {
	buf := frame.Encode()
	_, err := t.conn.Write(buf[:])
	return err
}

// TryRecvOne attempts to read exactly one InputFrame record. In
// non-blocking mode it returns (zero, false, nil) on a would-block
// timeout (no data currently available) rather than an error. Any
// other read failure is returned as an error and the caller should
// stop draining.
func (t *Transport) TryRecvOne() (wire.InputFrame, bool, error) {
	if t.nonBlocking {
		if err := t.conn.SetReadDeadline(time.Now().Add(pollDeadline)); err != nil {
			return wire.InputFrame{}, false, err
		}
	}

	var buf [wire.InputFrameSize]byte
	if _, err := readFull(t.conn, buf[:]); err != nil {
		if isTimeout(err) {
			return wire.InputFrame{}, false, nil
		}
		return wire.InputFrame{}, false, err
	}
	return wire.DecodeInputFrame(buf), true, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// readFull reads exactly len(buf) bytes, matching io.ReadFull but
// kept local so a timeout mid-record is reported as a timeout, not a
// generic short-read error.
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
