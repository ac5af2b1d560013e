// Package duckchatd implements the protocol core of a DuckChat relay
// server: the in-memory directory of users, channels and peers, the
// client and peer protocol handlers, the subtree manager, and the
// single-threaded event loop that ties them together over a UDP socket.
package duckchatd

import (
	"net"
	"time"

	"github.com/gongpengjun/DuckChat-App/internal/container"
	"github.com/gongpengjun/DuckChat-App/internal/wire"
)

// DefaultChannel is created at startup and is never destroyed, even when
// its membership list is empty.
const DefaultChannel = wire.DefaultChannel

// idCacheCapacity is the fixed size of the message-ID loop-suppression
// ring (I4).
const idCacheCapacity = 48

// refreshRateMinutes is REFRESH_RATE: the soft-state grace period, in
// wall-clock minutes, before an inactive user or peer is reaped.
const refreshRateMinutes = 2

// user is a logged-in client endpoint.
type user struct {
	endpoint     string
	username     string
	addr         *net.UDPAddr
	channels     *container.OrderedSet[string, struct{}]
	lastActivity int
}

// channel is a named multicast group. Membership is keyed by user
// endpoint so that a user can only ever occupy one slot (I2).
type channel struct {
	name    string
	members *container.OrderedSet[string, *user]
}

// peerRecord is a known neighbor server.
type peerRecord struct {
	endpoint     string
	addr         *net.UDPAddr
	lastActivity int
}

// routingEntry is the set of downstream subscribers (peers) this node
// forwards SAY traffic to, for one channel.
type routingEntry struct {
	channel string
	peers   *container.OrderedSet[string, *peerRecord]
}

// directory is the coherent, single-owner state bundle described in
// design note §9: users, channels, peers, the routing table, and the
// ID cache. It is owned and mutated exclusively by the event loop
// goroutine; handlers receive it by reference and never retain it
// across a dispatch.
type directory struct {
	users    map[string]*user    // by endpoint
	channels map[string]*channel // by name
	peers    *container.OrderedSet[string, *peerRecord]
	routing  map[string]*routingEntry // by channel
	idCache  *container.Ring[uint64]
}

func newDirectory() *directory {
	d := &directory{
		users:    make(map[string]*user),
		channels: make(map[string]*channel),
		peers:    container.NewOrderedSet[string, *peerRecord](),
		routing:  make(map[string]*routingEntry),
		idCache:  container.NewRing[uint64](idCacheCapacity),
	}
	d.channels[DefaultChannel] = &channel{
		name:    DefaultChannel,
		members: container.NewOrderedSet[string, *user](),
	}
	return d
}

func (d *directory) findOrCreateChannel(name string) *channel {
	c, ok := d.channels[name]
	if !ok {
		c = &channel{name: name, members: container.NewOrderedSet[string, *user]()}
		d.channels[name] = c
	}
	return c
}

// destroyChannelIfEmpty removes a non-default channel once it has no
// members left (I1).
func (d *directory) destroyChannelIfEmpty(name string) {
	if name == DefaultChannel {
		return
	}
	c, ok := d.channels[name]
	if ok && c.members.Len() == 0 {
		delete(d.channels, name)
	}
}

func (d *directory) findOrCreateRouting(name string) *routingEntry {
	r, ok := d.routing[name]
	if !ok {
		r = &routingEntry{channel: name, peers: container.NewOrderedSet[string, *peerRecord]()}
		d.routing[name] = r
	}
	return r
}

// isSubscribed reports whether this node already has a routing-table
// entry for channel (regardless of how many peers it lists).
func (d *directory) isSubscribed(channel string) bool {
	_, ok := d.routing[channel]
	return ok
}

// otherPeers returns every known peer except the one at excludeEndpoint,
// in insertion order.
func (d *directory) otherPeers(excludeEndpoint string) []*peerRecord {
	all := d.peers.Values()
	out := make([]*peerRecord, 0, len(all))
	for _, p := range all {
		if p.endpoint != excludeEndpoint {
			out = append(out, p)
		}
	}
	return out
}

// currentMinute is the wall-clock minute used throughout the directory
// for soft-state bookkeeping (I6). It intentionally discards everything
// but minute-of-hour: the protocol only ever compares minute-diffs modulo
// 60, never absolute timestamps (§4.5).
func currentMinute() int {
	return time.Now().Minute()
}

// minuteDiff returns the number of minutes elapsed from `then` to `now`,
// wrapping at the 60-minute boundary.
func minuteDiff(now, then int) int {
	if now >= then {
		return now - then
	}
	return (60 - then) + now
}

func endpointOf(addr *net.UDPAddr) string {
	return addr.String()
}
