package duckchatd

import (
	"io"
	"net"
	"time"
)

// sentPacket records one outbound datagram captured by a fakeConn.
type sentPacket struct {
	addr *net.UDPAddr
	data []byte
}

// fakeConn is an in-memory transport stand-in: it records every outbound
// write and never yields an inbound datagram, since the handler-level
// tests in this package call handlers directly rather than driving Run's
// event loop.
type fakeConn struct {
	sent []sentPacket
}

func (f *fakeConn) ReadFromUDP(b []byte) (int, *net.UDPAddr, error) {
	return 0, nil, io.EOF
}

func (f *fakeConn) WriteToUDP(b []byte, addr *net.UDPAddr) (int, error) {
	cp := make([]byte, len(b))
	copy(cp, b)
	f.sent = append(f.sent, sentPacket{addr: addr, data: cp})
	return len(b), nil
}

func (f *fakeConn) SetReadDeadline(t time.Time) error { return nil }

func (f *fakeConn) Close() error { return nil }

func udpAddr(hostport string) *net.UDPAddr {
	addr, err := net.ResolveUDPAddr("udp", hostport)
	if err != nil {
		panic(err)
	}
	return addr
}

func newTestServer(peers ...string) (*Server, *fakeConn) {
	conn := &fakeConn{}
	peerAddrs := make([]*net.UDPAddr, 0, len(peers))
	for _, p := range peers {
		peerAddrs = append(peerAddrs, udpAddr(p))
	}
	s := newServerWithTransport(conn, peerAddrs, nil, nil)
	return s, conn
}
