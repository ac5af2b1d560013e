package duckchatd

import (
	"fmt"
	"net"

	"github.com/gongpengjun/DuckChat-App/internal/wire"
)

// Peer protocol handlers (component D) and the distributed gather
// pattern. Every handler first refreshes the sending peer's
// last-activity minute; unrecognized senders (no matching peerRecord —
// peers are only ever created from the startup neighbor list) are
// dropped, since the protocol never discovers peers at runtime.

func (s *Server) peerFor(addr *net.UDPAddr) (*peerRecord, bool) {
	return s.dir.peers.Get(endpointOf(addr))
}

func (s *Server) handleS2SJoin(addr *net.UDPAddr, p *wire.ReqS2SJoin) {
	peer, ok := s.peerFor(addr)
	if !ok {
		return
	}
	peer.lastActivity = currentMinute()

	if !s.dir.isSubscribed(p.Channel) {
		s.dir.seedRoutingWithAllPeers(p.Channel)
		s.floodS2SJoin(p.Channel, peer.endpoint)
		return
	}
	r := s.dir.findOrCreateRouting(p.Channel)
	r.peers.Put(peer.endpoint, peer)
}

func (s *Server) handleS2SLeave(addr *net.UDPAddr, p *wire.ReqS2SLeave) {
	peer, ok := s.peerFor(addr)
	if !ok {
		return
	}
	peer.lastActivity = currentMinute()

	if r, ok := s.dir.routing[p.Channel]; ok {
		r.peers.Remove(peer.endpoint)
	}
	s.leafPrune(p.Channel)
}

func (s *Server) handleS2SSay(addr *net.UDPAddr, p *wire.ReqS2SSay) {
	peer, ok := s.peerFor(addr)
	if !ok {
		return
	}
	peer.lastActivity = currentMinute()

	if s.dir.idCache.Contains(p.ID) {
		s.send(peer.addr, "s2s_leave", (&wire.ReqS2SLeave{Channel: p.Channel}).Marshal())
		return
	}
	s.dir.idCache.Insert(p.ID)

	if c, ok := s.dir.channels[p.Channel]; ok {
		s.broadcastSay(c, p.Username, p.Text)
	}

	if s.leafPrune(p.Channel) {
		return
	}

	r, ok := s.dir.routing[p.Channel]
	if !ok {
		return
	}
	data := (&wire.ReqS2SSay{ID: p.ID, Channel: p.Channel, Username: p.Username, Text: p.Text}).Marshal()
	for _, sub := range r.peers.Values() {
		if sub.endpoint == peer.endpoint {
			continue
		}
		s.send(sub.addr, "s2s_say", data)
	}
}

func (s *Server) handleS2SLeaf(addr *net.UDPAddr, p *wire.ReqS2SLeaf) {
	peer, ok := s.peerFor(addr)
	if !ok {
		return
	}
	peer.lastActivity = currentMinute()

	s.leafPrune(p.Channel)

	if s.dir.idCache.Contains(p.ID) {
		// The probe has circled back to us: the sender is not actually
		// downstream of us for this channel any more.
		if r, ok := s.dir.routing[p.Channel]; ok {
			r.peers.Remove(peer.endpoint)
		}
		s.send(peer.addr, "s2s_leave", (&wire.ReqS2SLeave{Channel: p.Channel}).Marshal())
		return
	}
	s.dir.idCache.Insert(p.ID)

	if c, ok := s.dir.channels[p.Channel]; ok && c.members.Len() > 0 {
		return
	}

	r, ok := s.dir.routing[p.Channel]
	if !ok {
		return
	}
	data := (&wire.ReqS2SLeaf{ID: p.ID, Channel: p.Channel}).Marshal()
	for _, sub := range r.peers.Values() {
		if sub.endpoint == peer.endpoint {
			continue
		}
		s.send(sub.addr, "s2s_leaf", data)
	}
}

func (s *Server) handleS2SKeepAlive(addr *net.UDPAddr) {
	if peer, ok := s.peerFor(addr); ok {
		peer.lastActivity = currentMinute()
	}
}

func (s *Server) handleS2SVerify(addr *net.UDPAddr, p *wire.ReqS2SVerify) {
	peer, ok := s.peerFor(addr)
	if !ok {
		return
	}
	peer.lastActivity = currentMinute()

	var toVisit []string
	if s.dir.idCache.Contains(p.ID) {
		// Circled back: no further local check, use the manifest as-is.
		toVisit = p.ToVisit
	} else {
		s.dir.idCache.Insert(p.ID)
		for _, u := range s.dir.users {
			if u.username == p.Username {
				s.replyTo(p.Requester, "txt_verify", (&wire.TxtVerify{Valid: false}).Marshal())
				return
			}
		}
		toVisit = unionToVisit(p.ToVisit, s.dir.otherPeers(peer.endpoint))
	}

	if len(toVisit) == 0 {
		s.replyTo(p.Requester, "txt_verify", (&wire.TxtVerify{Valid: true}).Marshal())
		return
	}
	next, rest := popFirst(toVisit)
	nextAddr, err := net.ResolveUDPAddr("udp", next)
	if err != nil {
		s.dropped("bad_endpoint")
		return
	}
	pkt := &wire.ReqS2SVerify{ID: p.ID, Username: p.Username, Requester: p.Requester, ToVisit: rest}
	s.send(nextAddr, "s2s_verify", pkt.Marshal())
}

func (s *Server) handleS2SList(addr *net.UDPAddr, p *wire.ReqS2SList) {
	peer, ok := s.peerFor(addr)
	if !ok {
		return
	}
	peer.lastActivity = currentMinute()

	channels := p.Channels
	toVisit := p.ToVisit
	if !s.dir.idCache.Contains(p.ID) {
		s.dir.idCache.Insert(p.ID)
		channels = unionStrings(channels, s.localChannelNames())
		toVisit = unionToVisit(toVisit, s.dir.otherPeers(peer.endpoint))
	}

	if len(toVisit) == 0 {
		s.replyTo(p.Requester, "txt_list", (&wire.TxtList{Channels: channels}).Marshal())
		return
	}
	next, rest := popFirst(toVisit)
	nextAddr, err := net.ResolveUDPAddr("udp", next)
	if err != nil {
		s.dropped("bad_endpoint")
		return
	}
	pkt := &wire.ReqS2SList{ID: p.ID, Requester: p.Requester, Channels: channels, ToVisit: rest}
	s.send(nextAddr, "s2s_list", pkt.Marshal())
}

func (s *Server) handleS2SWho(addr *net.UDPAddr, p *wire.ReqS2SWho) {
	peer, ok := s.peerFor(addr)
	if !ok {
		return
	}
	peer.lastActivity = currentMinute()

	users := p.Users
	toVisit := p.ToVisit
	if !s.dir.idCache.Contains(p.ID) {
		s.dir.idCache.Insert(p.ID)
		var local []string
		if c, ok := s.dir.channels[p.Channel]; ok {
			local = usernamesOf(c)
		}
		users = unionStrings(users, local)
		toVisit = unionToVisit(toVisit, s.dir.otherPeers(peer.endpoint))
	}

	if len(toVisit) == 0 {
		if len(users) == 0 && p.Channel != DefaultChannel {
			msg := fmt.Sprintf("No channel by the name %s.", p.Channel)
			s.replyTo(p.Requester, "txt_error", (&wire.TxtError{Text: msg}).Marshal())
			return
		}
		s.replyTo(p.Requester, "txt_who", (&wire.TxtWho{Channel: p.Channel, Usernames: users}).Marshal())
		return
	}
	next, rest := popFirst(toVisit)
	nextAddr, err := net.ResolveUDPAddr("udp", next)
	if err != nil {
		s.dropped("bad_endpoint")
		return
	}
	pkt := &wire.ReqS2SWho{ID: p.ID, Channel: p.Channel, Requester: p.Requester, Users: users, ToVisit: rest}
	s.send(nextAddr, "s2s_who", pkt.Marshal())
}

// replyTo resolves a "host:port" endpoint string and sends a datagram to
// it directly; used by gather queries replying to the original requester,
// who may be several hops away from the node holding the final result.
func (s *Server) replyTo(endpoint, kind string, data []byte) {
	addr, err := net.ResolveUDPAddr("udp", endpoint)
	if err != nil {
		s.dropped("bad_endpoint")
		return
	}
	s.send(addr, kind, data)
}

func popFirst(list []string) (string, []string) {
	return list[0], list[1:]
}

func unionStrings(existing, additions []string) []string {
	seen := make(map[string]struct{}, len(existing))
	out := make([]string, len(existing))
	copy(out, existing)
	for _, v := range existing {
		seen[v] = struct{}{}
	}
	for _, v := range additions {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func unionToVisit(existing []string, peers []*peerRecord) []string {
	additions := make([]string, len(peers))
	for i, p := range peers {
		additions[i] = p.endpoint
	}
	return unionStrings(existing, additions)
}
