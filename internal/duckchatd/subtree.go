package duckchatd

import "github.com/gongpengjun/DuckChat-App/internal/wire"

// Subtree manager (component E): join-flooding, leaf pruning, loop
// suppression bookkeeping, and the periodic refresh/reap passes.

// seedRoutingWithAllPeers creates (or reuses) the routing-table entry for
// channel and seeds it with every currently known peer. This is the
// "pre-pruned" subscriber set §4.4 describes for a freshly flooded
// subscription: leaf pruning trims it down to the real subtree over time.
func (d *directory) seedRoutingWithAllPeers(channel string) *routingEntry {
	r := d.findOrCreateRouting(channel)
	for _, p := range d.peers.Values() {
		r.peers.Put(p.endpoint, p)
	}
	return r
}

// floodS2SJoin announces a channel subscription to every known peer
// except the one at exceptEndpoint (pass "" to flood to all, as when the
// subscription originates from a local client rather than a peer).
func (s *Server) floodS2SJoin(channelName, exceptEndpoint string) {
	pkt := &wire.ReqS2SJoin{Channel: channelName}
	data := pkt.Marshal()
	for _, p := range s.dir.otherPeers(exceptEndpoint) {
		s.send(p.addr, "s2s_join", data)
	}
}

// isLeaf reports whether this node is a leaf for channelName: either it
// has no peers at all, or its routing-table entry has fewer than two
// subscriber peers and no local members (§4.5).
func (s *Server) isLeaf(channelName string) bool {
	if s.dir.peers.Len() == 0 {
		return true
	}
	peerCount := 0
	if r, ok := s.dir.routing[channelName]; ok {
		peerCount = r.peers.Len()
	}
	localMembers := 0
	if c, ok := s.dir.channels[channelName]; ok {
		localMembers = c.members.Len()
	}
	return peerCount < 2 && localMembers == 0
}

// leafPrune removes channelName's routing-table entry if this node has
// become a leaf for it, notifying the sole remaining upstream peer (if
// any) with S2S LEAVE. It reports whether this node is a leaf for
// channelName, in which case no routing entry for it remains afterwards.
// Applying it twice in a row with no events between changes nothing the
// second time (P7): it reports true again, but the routing entry is
// already gone, so there is no upstream to notify.
func (s *Server) leafPrune(channelName string) bool {
	if !s.isLeaf(channelName) {
		return false
	}
	r, ok := s.dir.routing[channelName]
	var upstream *peerRecord
	if ok && r.peers.Len() == 1 {
		upstream = r.peers.Values()[0]
	}
	delete(s.dir.routing, channelName)
	if upstream != nil {
		s.send(upstream.addr, "s2s_leave", (&wire.ReqS2SLeave{Channel: channelName}).Marshal())
	}
	return true
}

// emitLeafProbes sends an S2S LEAF probe to every downstream subscriber
// peer for channelName, used when the local membership has gone empty
// but this node is not (yet) a leaf — it asks its subtree whether anyone
// downstream still wants the channel.
func (s *Server) emitLeafProbes(channelName string) {
	r, ok := s.dir.routing[channelName]
	if !ok || r.peers.Len() == 0 {
		return
	}
	id := newMessageID()
	s.dir.idCache.Insert(id)
	pkt := &wire.ReqS2SLeaf{ID: id, Channel: channelName}
	data := pkt.Marshal()
	for _, p := range r.peers.Values() {
		s.send(p.addr, "s2s_leaf", data)
	}
}

// softStateRefresh is ticked roughly every 60 seconds by the event loop:
// it re-asserts this node's liveness and its subscriptions to every peer.
func (s *Server) softStateRefresh() {
	keepAlive := (&wire.ReqS2SKeepAlive{}).Marshal()
	for _, p := range s.dir.peers.Values() {
		s.send(p.addr, "s2s_keep_alive", keepAlive)
	}
	for channelName := range s.dir.routing {
		s.floodS2SJoin(channelName, "")
	}
}

// reap runs the inactivity sweep: users and peers whose last-activity
// minute-diff from wall-clock now exceeds REFRESH_RATE are dropped.
func (s *Server) reap() {
	now := currentMinute()

	for ep, u := range s.dir.users {
		if minuteDiff(now, u.lastActivity) > refreshRateMinutes {
			s.forceLogout(ep, u)
		}
	}

	for _, p := range s.dir.peers.Values() {
		if minuteDiff(now, p.lastActivity) > refreshRateMinutes {
			s.reapPeer(p)
		}
	}
}

// forceLogout drops an inactive user through the same cleanup path as an
// explicit LOGOUT.
func (s *Server) forceLogout(endpoint string, u *user) {
	delete(s.dir.users, endpoint)
	for _, chName := range u.channels.Keys() {
		c, ok := s.dir.channels[chName]
		if !ok {
			continue
		}
		c.members.Remove(endpoint)
		s.dir.destroyChannelIfEmpty(chName)
		s.leafPrune(chName)
	}
}

// reapPeer drops a peer that has gone quiet, removing it from every
// routing-table entry that lists it and re-running leaf pruning for each
// (crash detection, §4.5 / S6).
func (s *Server) reapPeer(p *peerRecord) {
	s.dir.peers.Remove(p.endpoint)
	for channelName, r := range s.dir.routing {
		if r.peers.Has(p.endpoint) {
			r.peers.Remove(p.endpoint)
			s.leafPrune(channelName)
		}
	}
}
