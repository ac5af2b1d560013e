package duckchatd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/gongpengjun/DuckChat-App/internal/metrics"
	"github.com/gongpengjun/DuckChat-App/internal/wire"
)

// recvTimeout is the event loop's sole timer: the receive-or-tick
// dispatch described in §4.6 blocks for at most this long before it
// treats the iteration as a tick.
const recvTimeout = 60 * time.Second

const maxDatagramSize = 4096

// transport is the narrow slice of *net.UDPConn the event loop depends
// on; tests substitute an in-memory fake so the protocol core can be
// exercised without binding a real socket.
type transport interface {
	ReadFromUDP(b []byte) (int, *net.UDPAddr, error)
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Server is a single DuckChat relay node: one UDP socket, one directory,
// one logger. Every field is owned by the event-loop goroutine that runs
// inside Run; there is no internal locking (§5).
type Server struct {
	conn    transport
	dir     *directory
	log     *slog.Logger
	metrics *metrics.Registry
	ticks   int
}

// NewServer binds a UDP socket at bindAddr and seeds the directory with
// the given initial peers. Peer addresses must already be resolved.
func NewServer(bindAddr *net.UDPAddr, peers []*net.UDPAddr, log *slog.Logger, m *metrics.Registry) (*Server, error) {
	conn, err := net.ListenUDP("udp", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("duckchatd: listen %s: %w", bindAddr, err)
	}
	s := newServerWithTransport(conn, peers, log, m)
	return s, nil
}

// newServerWithTransport builds a Server around an already-bound
// transport; split out so tests can inject a fake.
func newServerWithTransport(conn transport, peers []*net.UDPAddr, log *slog.Logger, m *metrics.Registry) *Server {
	if log == nil {
		log = slog.Default()
	}
	dir := newDirectory()
	minute := currentMinute()
	for _, addr := range peers {
		ep := endpointOf(addr)
		dir.peers.Put(ep, &peerRecord{endpoint: ep, addr: addr, lastActivity: minute})
	}
	return &Server{conn: conn, dir: dir, log: log, metrics: m}
}

// Close releases the server's socket.
func (s *Server) Close() error {
	return s.conn.Close()
}

// Run drives the event loop until ctx is cancelled or the socket fails
// irrecoverably. It always returns nil on context cancellation (the CLI's
// exit-0-on-SIGINT contract, §6, is enforced by the caller).
func (s *Server) Run(ctx context.Context) error {
	buf := make([]byte, maxDatagramSize)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := s.conn.SetReadDeadline(time.Now().Add(recvTimeout)); err != nil {
			return fmt.Errorf("duckchatd: set read deadline: %w", err)
		}
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if isTimeout(err) {
				s.tick()
				continue
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			s.log.Warn("recv failed", "error", err)
			continue
		}
		s.dispatch(buf[:n], addr)
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	if e, ok := err.(net.Error); ok {
		ne = e
	}
	return ne != nil && ne.Timeout()
}

// dispatch demuxes one datagram by packet kind to the client or peer
// protocol handler (component F).
func (s *Server) dispatch(data []byte, addr *net.UDPAddr) {
	pkt, err := wire.Decode(data)
	if err != nil {
		s.dropped("malformed")
		return
	}

	switch p := pkt.(type) {
	case *wire.ReqLogin:
		s.received("login")
		s.handleLogin(addr, p)
	case *wire.ReqLogout:
		s.received("logout")
		s.handleLogout(addr)
	case *wire.ReqJoin:
		s.received("join")
		s.handleJoin(addr, p)
	case *wire.ReqLeave:
		s.received("leave")
		s.handleLeave(addr, p)
	case *wire.ReqSay:
		s.received("say")
		s.handleSay(addr, p)
	case *wire.ReqList:
		s.received("list")
		s.handleList(addr)
	case *wire.ReqWho:
		s.received("who")
		s.handleWho(addr, p)
	case *wire.ReqKeepAlive:
		s.received("keep_alive")
		s.handleKeepAlive(addr)
	case *wire.ReqVerify:
		s.received("verify")
		s.handleVerify(addr, p)

	case *wire.ReqS2SJoin:
		s.received("s2s_join")
		s.handleS2SJoin(addr, p)
	case *wire.ReqS2SLeave:
		s.received("s2s_leave")
		s.handleS2SLeave(addr, p)
	case *wire.ReqS2SSay:
		s.received("s2s_say")
		s.handleS2SSay(addr, p)
	case *wire.ReqS2SLeaf:
		s.received("s2s_leaf")
		s.handleS2SLeaf(addr, p)
	case *wire.ReqS2SVerify:
		s.received("s2s_verify")
		s.handleS2SVerify(addr, p)
	case *wire.ReqS2SList:
		s.received("s2s_list")
		s.handleS2SList(addr, p)
	case *wire.ReqS2SWho:
		s.received("s2s_who")
		s.handleS2SWho(addr, p)
	case *wire.ReqS2SKeepAlive:
		s.received("s2s_keep_alive")
		s.handleS2SKeepAlive(addr)
	default:
		s.dropped("unknown_kind")
	}

	s.refreshGauges()
}

// tick is the timer branch of the event loop: it runs soft-state refresh
// every pass, and the reap pass every REFRESH_RATE passes (§4.5).
func (s *Server) tick() {
	s.softStateRefresh()
	s.ticks++
	if s.ticks >= refreshRateMinutes {
		s.ticks = 0
		s.reap()
	}
	s.refreshGauges()
}

// send fires an already-marshalled datagram at addr. Send failures are logged
// and counted, never retried (§5 failure model).
func (s *Server) send(addr *net.UDPAddr, kind string, data []byte) {
	if _, err := s.conn.WriteToUDP(data, addr); err != nil {
		s.log.Warn("send failed", "kind", kind, "to", addr, "error", err)
		s.dropped("send_error")
		return
	}
	if s.metrics != nil {
		s.metrics.PacketsSentTotal.WithLabelValues(kind).Inc()
	}
}

func (s *Server) received(kind string) {
	if s.metrics != nil {
		s.metrics.PacketsReceivedTotal.WithLabelValues(kind).Inc()
	}
}

func (s *Server) dropped(reason string) {
	s.log.Warn("dropped datagram", "reason", reason)
	if s.metrics != nil {
		s.metrics.PacketsDroppedTotal.WithLabelValues(reason).Inc()
	}
}

func (s *Server) refreshGauges() {
	if s.metrics == nil {
		return
	}
	s.metrics.Users.Set(float64(len(s.dir.users)))
	s.metrics.Peers.Set(float64(s.dir.peers.Len()))
	s.metrics.Channels.Set(float64(len(s.dir.channels)))
	s.metrics.IDCacheSize.Set(float64(s.dir.idCache.Len()))
}

func (s *Server) sendError(addr *net.UDPAddr, text string) {
	s.send(addr, "txt_error", (&wire.TxtError{Text: text}).Marshal())
}
