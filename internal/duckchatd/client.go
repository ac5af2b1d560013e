package duckchatd

import (
	"fmt"
	"net"

	"github.com/gongpengjun/DuckChat-App/internal/container"
	"github.com/gongpengjun/DuckChat-App/internal/wire"
)

// Client protocol handlers (component C). Each is invoked with the
// datagram's payload already decoded and the sender's address; per §4.3
// every handler updates the sender's last-activity minute on entry where
// a user record exists.

func (s *Server) handleLogin(addr *net.UDPAddr, p *wire.ReqLogin) {
	ep := endpointOf(addr)
	if _, exists := s.dir.users[ep]; exists {
		// A LOGIN for an already-logged-in endpoint is a silent no-op.
		return
	}
	s.dir.users[ep] = &user{
		endpoint:     ep,
		username:     p.Username,
		addr:         addr,
		channels:     container.NewOrderedSet[string, struct{}](),
		lastActivity: currentMinute(),
	}
}

func (s *Server) handleLogout(addr *net.UDPAddr) {
	ep := endpointOf(addr)
	u, ok := s.dir.users[ep]
	if !ok {
		return
	}
	delete(s.dir.users, ep)
	for _, chName := range u.channels.Keys() {
		c, ok := s.dir.channels[chName]
		if !ok {
			continue
		}
		c.members.Remove(ep)
		s.dir.destroyChannelIfEmpty(chName)
		s.leafPrune(chName)
	}
}

func (s *Server) handleJoin(addr *net.UDPAddr, p *wire.ReqJoin) {
	ep := endpointOf(addr)
	u, ok := s.dir.users[ep]
	if !ok {
		return
	}
	u.lastActivity = currentMinute()

	c := s.dir.findOrCreateChannel(p.Channel)
	u.channels.Put(p.Channel, struct{}{})
	c.members.Put(ep, u)

	if !s.dir.isSubscribed(p.Channel) && s.dir.peers.Len() > 0 {
		s.dir.seedRoutingWithAllPeers(p.Channel)
		s.floodS2SJoin(p.Channel, "")
	}
}

func (s *Server) handleLeave(addr *net.UDPAddr, p *wire.ReqLeave) {
	ep := endpointOf(addr)
	u, ok := s.dir.users[ep]
	if !ok {
		return
	}
	u.lastActivity = currentMinute()

	c, exists := s.dir.channels[p.Channel]
	if !exists {
		s.sendError(addr, fmt.Sprintf("No channel by the name %s.", p.Channel))
		return
	}

	u.channels.Remove(p.Channel)
	c.members.Remove(ep)
	s.dir.destroyChannelIfEmpty(p.Channel)

	if !s.leafPrune(p.Channel) && c.members.Len() == 0 {
		s.emitLeafProbes(p.Channel)
	}
}

func (s *Server) handleSay(addr *net.UDPAddr, p *wire.ReqSay) {
	ep := endpointOf(addr)
	u, ok := s.dir.users[ep]
	if !ok {
		return
	}
	u.lastActivity = currentMinute()

	c, ok := s.dir.channels[p.Channel]
	if !ok {
		return
	}
	s.broadcastSay(c, u.username, p.Text)

	r, ok := s.dir.routing[p.Channel]
	if !ok || r.peers.Len() == 0 {
		return
	}
	id := newMessageID()
	s.dir.idCache.Insert(id)
	pkt := &wire.ReqS2SSay{ID: id, Channel: p.Channel, Username: u.username, Text: p.Text}
	data := pkt.Marshal()
	for _, peer := range r.peers.Values() {
		s.send(peer.addr, "s2s_say", data)
	}
}

func (s *Server) broadcastSay(c *channel, username, text string) {
	pkt := &wire.TxtSay{Channel: c.name, Username: username, Text: text}
	data := pkt.Marshal()
	for _, m := range c.members.Values() {
		s.send(m.addr, "txt_say", data)
	}
}

func (s *Server) handleList(addr *net.UDPAddr) {
	if u, ok := s.dir.users[endpointOf(addr)]; ok {
		u.lastActivity = currentMinute()
	}
	if s.dir.peers.Len() == 0 {
		s.send(addr, "txt_list", (&wire.TxtList{Channels: s.localChannelNames()}).Marshal())
		return
	}

	peers := s.dir.peers.Values()
	first, toVisit := firstAndRest(peers)
	id := newMessageID()
	s.dir.idCache.Insert(id)
	pkt := &wire.ReqS2SList{
		ID:        id,
		Requester: endpointOf(addr),
		Channels:  s.localChannelNames(),
		ToVisit:   toVisit,
	}
	s.send(first.addr, "s2s_list", pkt.Marshal())
}

func (s *Server) handleWho(addr *net.UDPAddr, p *wire.ReqWho) {
	if u, ok := s.dir.users[endpointOf(addr)]; ok {
		u.lastActivity = currentMinute()
	}
	if s.dir.peers.Len() == 0 {
		c, ok := s.dir.channels[p.Channel]
		if !ok {
			s.sendError(addr, fmt.Sprintf("No channel by the name %s.", p.Channel))
			return
		}
		s.send(addr, "txt_who", (&wire.TxtWho{Channel: p.Channel, Usernames: usernamesOf(c)}).Marshal())
		return
	}

	var usernames []string
	if c, ok := s.dir.channels[p.Channel]; ok {
		usernames = usernamesOf(c)
	}
	peers := s.dir.peers.Values()
	first, toVisit := firstAndRest(peers)
	id := newMessageID()
	s.dir.idCache.Insert(id)
	pkt := &wire.ReqS2SWho{
		ID:        id,
		Channel:   p.Channel,
		Requester: endpointOf(addr),
		Users:     usernames,
		ToVisit:   toVisit,
	}
	s.send(first.addr, "s2s_who", pkt.Marshal())
}

func (s *Server) handleKeepAlive(addr *net.UDPAddr) {
	ep := endpointOf(addr)
	if u, ok := s.dir.users[ep]; ok {
		u.lastActivity = currentMinute()
	}
}

func (s *Server) handleVerify(addr *net.UDPAddr, p *wire.ReqVerify) {
	if u, ok := s.dir.users[endpointOf(addr)]; ok {
		u.lastActivity = currentMinute()
	}
	for _, u := range s.dir.users {
		if u.username == p.Username {
			s.send(addr, "txt_verify", (&wire.TxtVerify{Valid: false}).Marshal())
			return
		}
	}

	if s.dir.peers.Len() == 0 {
		s.send(addr, "txt_verify", (&wire.TxtVerify{Valid: true}).Marshal())
		return
	}

	peers := s.dir.peers.Values()
	first, toVisit := firstAndRest(peers)
	id := newMessageID()
	s.dir.idCache.Insert(id)
	pkt := &wire.ReqS2SVerify{
		ID:        id,
		Username:  p.Username,
		Requester: endpointOf(addr),
		ToVisit:   toVisit,
	}
	s.send(first.addr, "s2s_verify", pkt.Marshal())
}

func (s *Server) localChannelNames() []string {
	names := make([]string, 0, len(s.dir.channels))
	for name := range s.dir.channels {
		names = append(names, name)
	}
	return names
}

func usernamesOf(c *channel) []string {
	members := c.members.Values()
	names := make([]string, 0, len(members))
	for _, u := range members {
		names = append(names, u.username)
	}
	return names
}

// firstAndRest splits an ordered peer slice into the first hop of a
// gather query and the to-visit manifest of everyone else's endpoints.
func firstAndRest(peers []*peerRecord) (*peerRecord, []string) {
	rest := make([]string, 0, len(peers)-1)
	for _, p := range peers[1:] {
		rest = append(rest, p.endpoint)
	}
	return peers[0], rest
}
