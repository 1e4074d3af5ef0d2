package relay

import (
	"net"
	"time"

	"go.uber.org/zap"

	"pongrelay/transport"
)

const funnelPollInterval = 1 * time.Millisecond

// funnel pumps input frames bidirectionally between the host and
// joiner connections until either side errors or closes. It must not
// block on either direction while the other has data ready, so each
// side is drained non-blockingly in turn rather than copied by its
// own dedicated blocking goroutine the way a plain io.Copy pump would.
func (s *Server) funnel(host, joiner net.Conn) {
	defer host.Close()
	defer joiner.Close()

	a := transport.New(host)
	b := transport.New(joiner)
	a.SetNonBlocking()
	b.SetNonBlocking()

	for {
		if err := pump(a, b); err != nil {
			s.log.Debug("funnel stopped, host side closed", zap.Error(err))
			return
		}
		if err := pump(b, a); err != nil {
			s.log.Debug("funnel stopped, joiner side closed", zap.Error(err))
			return
		}
		time.Sleep(funnelPollInterval)
	}
}

// pump drains every input frame currently available from src and
// relays each one to dst, stopping at the first would-block (returns
// nil) or hard error.
func pump(src, dst *transport.Transport) error {
	for {
		frame, ok, err := src.TryRecvOne()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := dst.Send(frame); err != nil {
			return err
		}
	}
}
