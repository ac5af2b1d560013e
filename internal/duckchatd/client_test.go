package duckchatd

import (
	"testing"

	"github.com/gongpengjun/DuckChat-App/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginCreatesUser(t *testing.T) {
	s, _ := newTestServer()
	addr := udpAddr("127.0.0.1:6000")
	s.handleLogin(addr, &wire.ReqLogin{Username: "alice"})

	u, ok := s.dir.users[endpointOf(addr)]
	require.True(t, ok)
	assert.Equal(t, "alice", u.username)
}

func TestLoginIsNoOpWhenAlreadyLoggedIn(t *testing.T) {
	s, _ := newTestServer()
	addr := udpAddr("127.0.0.1:6000")
	s.handleLogin(addr, &wire.ReqLogin{Username: "alice"})
	s.handleLogin(addr, &wire.ReqLogin{Username: "bob"})

	u := s.dir.users[endpointOf(addr)]
	assert.Equal(t, "alice", u.username)
}

func TestJoinWithoutLoginIsIgnored(t *testing.T) {
	s, _ := newTestServer()
	addr := udpAddr("127.0.0.1:6000")
	s.handleJoin(addr, &wire.ReqJoin{Channel: "games"})
	_, ok := s.dir.channels["games"]
	assert.False(t, ok)
}

func TestJoinAddsMembershipBothSides(t *testing.T) {
	s, _ := newTestServer()
	addr := udpAddr("127.0.0.1:6000")
	s.handleLogin(addr, &wire.ReqLogin{Username: "alice"})
	s.handleJoin(addr, &wire.ReqJoin{Channel: "games"})

	u := s.dir.users[endpointOf(addr)]
	assert.True(t, u.channels.Has("games"))
	c := s.dir.channels["games"]
	assert.True(t, c.members.Has(endpointOf(addr)))
}

func TestDuplicateJoinIsNoOp(t *testing.T) {
	s, _ := newTestServer()
	addr := udpAddr("127.0.0.1:6000")
	s.handleLogin(addr, &wire.ReqLogin{Username: "alice"})
	s.handleJoin(addr, &wire.ReqJoin{Channel: "games"})
	s.handleJoin(addr, &wire.ReqJoin{Channel: "games"})

	u := s.dir.users[endpointOf(addr)]
	assert.Equal(t, 1, u.channels.Len())
	c := s.dir.channels["games"]
	assert.Equal(t, 1, c.members.Len())
}

func TestJoinWithPeersFloodsS2SJoin(t *testing.T) {
	s, conn := newTestServer("127.0.0.1:5001", "127.0.0.1:5002")
	addr := udpAddr("127.0.0.1:6000")
	s.handleLogin(addr, &wire.ReqLogin{Username: "alice"})
	s.handleJoin(addr, &wire.ReqJoin{Channel: "games"})

	assert.Len(t, conn.sent, 2)
	for _, pkt := range conn.sent {
		decoded, err := wire.Decode(pkt.data)
		require.NoError(t, err)
		join, ok := decoded.(*wire.ReqS2SJoin)
		require.True(t, ok)
		assert.Equal(t, "games", join.Channel)
	}
	r, ok := s.dir.routing["games"]
	require.True(t, ok)
	assert.Equal(t, 2, r.peers.Len())
}

func TestLeaveUnknownChannelRepliesError(t *testing.T) {
	s, conn := newTestServer()
	addr := udpAddr("127.0.0.1:6000")
	s.handleLogin(addr, &wire.ReqLogin{Username: "alice"})
	s.handleLeave(addr, &wire.ReqLeave{Channel: "nope"})

	require.Len(t, conn.sent, 1)
	decoded, err := wire.Decode(conn.sent[0].data)
	require.NoError(t, err)
	errPkt, ok := decoded.(*wire.TxtError)
	require.True(t, ok)
	assert.Contains(t, errPkt.Text, "nope")
}

func TestLogoutRemovesUserFromChannels(t *testing.T) {
	s, _ := newTestServer()
	addr := udpAddr("127.0.0.1:6000")
	s.handleLogin(addr, &wire.ReqLogin{Username: "alice"})
	s.handleJoin(addr, &wire.ReqJoin{Channel: "games"})
	s.handleLogout(addr)

	_, ok := s.dir.users[endpointOf(addr)]
	assert.False(t, ok)
	_, ok = s.dir.channels["games"]
	assert.False(t, ok)
}

func TestSayBroadcastsToLocalMembersIncludingSender(t *testing.T) {
	s, conn := newTestServer()
	a1 := udpAddr("127.0.0.1:6000")
	a2 := udpAddr("127.0.0.1:6001")
	s.handleLogin(a1, &wire.ReqLogin{Username: "alice"})
	s.handleLogin(a2, &wire.ReqLogin{Username: "bob"})
	s.handleJoin(a1, &wire.ReqJoin{Channel: "games"})
	s.handleJoin(a2, &wire.ReqJoin{Channel: "games"})

	s.handleSay(a1, &wire.ReqSay{Channel: "games", Text: "hi"})

	require.Len(t, conn.sent, 2)
	recipients := map[string]bool{}
	for _, pkt := range conn.sent {
		recipients[pkt.addr.String()] = true
		decoded, err := wire.Decode(pkt.data)
		require.NoError(t, err)
		say, ok := decoded.(*wire.TxtSay)
		require.True(t, ok)
		assert.Equal(t, "hi", say.Text)
	}
	assert.True(t, recipients[a1.String()])
	assert.True(t, recipients[a2.String()])
}

func TestListWithNoPeersRepliesLocalChannels(t *testing.T) {
	s, conn := newTestServer()
	addr := udpAddr("127.0.0.1:6000")
	s.handleLogin(addr, &wire.ReqLogin{Username: "alice"})
	s.handleJoin(addr, &wire.ReqJoin{Channel: "games"})
	s.handleJoin(addr, &wire.ReqJoin{Channel: "music"})

	s.handleList(addr)

	require.Len(t, conn.sent, 1)
	decoded, err := wire.Decode(conn.sent[0].data)
	require.NoError(t, err)
	list, ok := decoded.(*wire.TxtList)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{DefaultChannel, "games", "music"}, list.Channels)
}

func TestWhoUnknownChannelNoPeersRepliesError(t *testing.T) {
	s, conn := newTestServer()
	addr := udpAddr("127.0.0.1:6000")
	s.handleWho(addr, &wire.ReqWho{Channel: "nope"})

	require.Len(t, conn.sent, 1)
	decoded, err := wire.Decode(conn.sent[0].data)
	require.NoError(t, err)
	_, ok := decoded.(*wire.TxtError)
	assert.True(t, ok)
}

func TestVerifyLocalCollision(t *testing.T) {
	s, conn := newTestServer()
	addr := udpAddr("127.0.0.1:6000")
	s.handleLogin(addr, &wire.ReqLogin{Username: "alice"})

	requester := udpAddr("127.0.0.1:6001")
	s.handleVerify(requester, &wire.ReqVerify{Username: "alice"})

	require.Len(t, conn.sent, 1)
	decoded, err := wire.Decode(conn.sent[0].data)
	require.NoError(t, err)
	verify, ok := decoded.(*wire.TxtVerify)
	require.True(t, ok)
	assert.False(t, verify.Valid)
}

func TestVerifyNoCollisionNoPeers(t *testing.T) {
	s, conn := newTestServer()
	requester := udpAddr("127.0.0.1:6001")
	s.handleVerify(requester, &wire.ReqVerify{Username: "alice"})

	require.Len(t, conn.sent, 1)
	decoded, err := wire.Decode(conn.sent[0].data)
	require.NoError(t, err)
	verify, ok := decoded.(*wire.TxtVerify)
	require.True(t, ok)
	assert.True(t, verify.Valid)
}

func TestVerifyForwardsWithPeers(t *testing.T) {
	s, conn := newTestServer("127.0.0.1:5001", "127.0.0.1:5002")
	requester := udpAddr("127.0.0.1:6001")
	s.handleVerify(requester, &wire.ReqVerify{Username: "alice"})

	require.Len(t, conn.sent, 1)
	assert.Equal(t, "127.0.0.1:5001", conn.sent[0].addr.String())
	decoded, err := wire.Decode(conn.sent[0].data)
	require.NoError(t, err)
	verify, ok := decoded.(*wire.ReqS2SVerify)
	require.True(t, ok)
	assert.Equal(t, []string{"127.0.0.1:5002"}, verify.ToVisit)
	assert.Equal(t, requester.String(), verify.Requester)
}
