package wire

// Server -> server (S2S) packets. Endpoints (the requester of a gather
// query, and to-visit entries) are carried as fixed-width "host:port"
// strings rather than a separate host/port pair, mirroring the single
// NUL-terminated field style used throughout the rest of the codec.

// ReqS2SJoin floods a channel subscription to a peer.
type ReqS2SJoin struct {
	Channel string
}

func (p *ReqS2SJoin) Marshal() []byte {
	e := newEncoder(tagSize + ChannelMax)
	e.tag(TagReqS2SJoin)
	e.fixed(p.Channel, ChannelMax)
	return e.bytes()
}

func UnmarshalReqS2SJoin(data []byte) (*ReqS2SJoin, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagReqS2SJoin) {
		return nil, ErrMalformed
	}
	channel, ok := d.fixed(ChannelMax)
	if !ok {
		return nil, ErrMalformed
	}
	return &ReqS2SJoin{Channel: channel}, nil
}

// ReqS2SLeave withdraws a channel subscription from a peer, either as a
// direct unsubscribe or as the upstream half of leaf pruning.
type ReqS2SLeave struct {
	Channel string
}

func (p *ReqS2SLeave) Marshal() []byte {
	e := newEncoder(tagSize + ChannelMax)
	e.tag(TagReqS2SLeave)
	e.fixed(p.Channel, ChannelMax)
	return e.bytes()
}

func UnmarshalReqS2SLeave(data []byte) (*ReqS2SLeave, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagReqS2SLeave) {
		return nil, ErrMalformed
	}
	channel, ok := d.fixed(ChannelMax)
	if !ok {
		return nil, ErrMalformed
	}
	return &ReqS2SLeave{Channel: channel}, nil
}

// ReqS2SSay forwards a chat message along the subtree for channel.
type ReqS2SSay struct {
	ID       uint64
	Channel  string
	Username string
	Text     string
}

func (p *ReqS2SSay) Marshal() []byte {
	e := newEncoder(tagSize + uint64Size + ChannelMax + UsernameMax + SayMax)
	e.tag(TagReqS2SSay)
	e.uint64(p.ID)
	e.fixed(p.Channel, ChannelMax)
	e.fixed(p.Username, UsernameMax)
	e.fixed(p.Text, SayMax)
	return e.bytes()
}

func UnmarshalReqS2SSay(data []byte) (*ReqS2SSay, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagReqS2SSay) {
		return nil, ErrMalformed
	}
	id, ok := d.uint64()
	if !ok {
		return nil, ErrMalformed
	}
	channel, ok := d.fixed(ChannelMax)
	if !ok {
		return nil, ErrMalformed
	}
	username, ok := d.fixed(UsernameMax)
	if !ok {
		return nil, ErrMalformed
	}
	text, ok := d.fixed(SayMax)
	if !ok {
		return nil, ErrMalformed
	}
	return &ReqS2SSay{ID: id, Channel: channel, Username: username, Text: text}, nil
}

// ReqS2SLeaf probes whether any node downstream still wants channel, as
// part of leaf pruning.
type ReqS2SLeaf struct {
	ID      uint64
	Channel string
}

func (p *ReqS2SLeaf) Marshal() []byte {
	e := newEncoder(tagSize + uint64Size + ChannelMax)
	e.tag(TagReqS2SLeaf)
	e.uint64(p.ID)
	e.fixed(p.Channel, ChannelMax)
	return e.bytes()
}

func UnmarshalReqS2SLeaf(data []byte) (*ReqS2SLeaf, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagReqS2SLeaf) {
		return nil, ErrMalformed
	}
	id, ok := d.uint64()
	if !ok {
		return nil, ErrMalformed
	}
	channel, ok := d.fixed(ChannelMax)
	if !ok {
		return nil, ErrMalformed
	}
	return &ReqS2SLeaf{ID: id, Channel: channel}, nil
}

// ReqS2SKeepAlive refreshes the sending peer's last-activity minute; no
// payload beyond the tag.
type ReqS2SKeepAlive struct{}

func (p *ReqS2SKeepAlive) Marshal() []byte {
	e := newEncoder(tagSize)
	e.tag(TagReqS2SKeepAlive)
	return e.bytes()
}

func UnmarshalReqS2SKeepAlive(data []byte) (*ReqS2SKeepAlive, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagReqS2SKeepAlive) {
		return nil, ErrMalformed
	}
	return &ReqS2SKeepAlive{}, nil
}

// ReqS2SVerify is the self-routing username-collision query. It carries
// its own remaining to-visit manifest so each node handles it at most once.
type ReqS2SVerify struct {
	ID        uint64
	Username  string
	Requester string
	ToVisit   []string
}

func (p *ReqS2SVerify) Marshal() []byte {
	e := newEncoder(tagSize + uint64Size + UsernameMax + IPMax + int32Size + len(p.ToVisit)*IPMax)
	e.tag(TagReqS2SVerify)
	e.uint64(p.ID)
	e.fixed(p.Username, UsernameMax)
	e.fixed(p.Requester, IPMax)
	e.int32(int32(len(p.ToVisit)))
	for _, v := range p.ToVisit {
		e.fixed(v, IPMax)
	}
	return e.bytes()
}

func UnmarshalReqS2SVerify(data []byte) (*ReqS2SVerify, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagReqS2SVerify) {
		return nil, ErrMalformed
	}
	id, ok := d.uint64()
	if !ok {
		return nil, ErrMalformed
	}
	username, ok := d.fixed(UsernameMax)
	if !ok {
		return nil, ErrMalformed
	}
	requester, ok := d.fixed(IPMax)
	if !ok {
		return nil, ErrMalformed
	}
	n, ok := d.int32()
	if !ok || n < 0 || int(n)*IPMax > d.remaining() {
		return nil, ErrMalformed
	}
	toVisit := make([]string, 0, n)
	for i := int32(0); i < n; i++ {
		v, ok := d.fixed(IPMax)
		if !ok {
			return nil, ErrMalformed
		}
		toVisit = append(toVisit, v)
	}
	return &ReqS2SVerify{ID: id, Username: username, Requester: requester, ToVisit: toVisit}, nil
}

// ReqS2SList is the self-routing channel-listing gather query. It
// accumulates the union of channels seen so far and carries the remaining
// to-visit manifest.
type ReqS2SList struct {
	ID        uint64
	Requester string
	Channels  []string
	ToVisit   []string
}

func (p *ReqS2SList) Marshal() []byte {
	size := tagSize + uint64Size + IPMax + int32Size + int32Size +
		len(p.Channels)*ChannelMax + len(p.ToVisit)*IPMax
	e := newEncoder(size)
	e.tag(TagReqS2SList)
	e.uint64(p.ID)
	e.fixed(p.Requester, IPMax)
	e.int32(int32(len(p.Channels)))
	e.int32(int32(len(p.ToVisit)))
	for _, c := range p.Channels {
		e.fixed(c, ChannelMax)
	}
	for _, v := range p.ToVisit {
		e.fixed(v, IPMax)
	}
	return e.bytes()
}

func UnmarshalReqS2SList(data []byte) (*ReqS2SList, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagReqS2SList) {
		return nil, ErrMalformed
	}
	id, ok := d.uint64()
	if !ok {
		return nil, ErrMalformed
	}
	requester, ok := d.fixed(IPMax)
	if !ok {
		return nil, ErrMalformed
	}
	nChannels, ok := d.int32()
	if !ok || nChannels < 0 {
		return nil, ErrMalformed
	}
	nToVisit, ok := d.int32()
	if !ok || nToVisit < 0 {
		return nil, ErrMalformed
	}
	if int(nChannels)*ChannelMax+int(nToVisit)*IPMax > d.remaining() {
		return nil, ErrMalformed
	}
	channels := make([]string, 0, nChannels)
	for i := int32(0); i < nChannels; i++ {
		c, ok := d.fixed(ChannelMax)
		if !ok {
			return nil, ErrMalformed
		}
		channels = append(channels, c)
	}
	toVisit := make([]string, 0, nToVisit)
	for i := int32(0); i < nToVisit; i++ {
		v, ok := d.fixed(IPMax)
		if !ok {
			return nil, ErrMalformed
		}
		toVisit = append(toVisit, v)
	}
	return &ReqS2SList{ID: id, Requester: requester, Channels: channels, ToVisit: toVisit}, nil
}

// ReqS2SWho is the self-routing per-channel user-listing gather query.
type ReqS2SWho struct {
	ID        uint64
	Channel   string
	Requester string
	Users     []string
	ToVisit   []string
}

func (p *ReqS2SWho) Marshal() []byte {
	size := tagSize + uint64Size + ChannelMax + IPMax + int32Size + int32Size +
		len(p.Users)*UsernameMax + len(p.ToVisit)*IPMax
	e := newEncoder(size)
	e.tag(TagReqS2SWho)
	e.uint64(p.ID)
	e.fixed(p.Channel, ChannelMax)
	e.fixed(p.Requester, IPMax)
	e.int32(int32(len(p.Users)))
	e.int32(int32(len(p.ToVisit)))
	for _, u := range p.Users {
		e.fixed(u, UsernameMax)
	}
	for _, v := range p.ToVisit {
		e.fixed(v, IPMax)
	}
	return e.bytes()
}

func UnmarshalReqS2SWho(data []byte) (*ReqS2SWho, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagReqS2SWho) {
		return nil, ErrMalformed
	}
	id, ok := d.uint64()
	if !ok {
		return nil, ErrMalformed
	}
	channel, ok := d.fixed(ChannelMax)
	if !ok {
		return nil, ErrMalformed
	}
	requester, ok := d.fixed(IPMax)
	if !ok {
		return nil, ErrMalformed
	}
	nUsers, ok := d.int32()
	if !ok || nUsers < 0 {
		return nil, ErrMalformed
	}
	nToVisit, ok := d.int32()
	if !ok || nToVisit < 0 {
		return nil, ErrMalformed
	}
	if int(nUsers)*UsernameMax+int(nToVisit)*IPMax > d.remaining() {
		return nil, ErrMalformed
	}
	users := make([]string, 0, nUsers)
	for i := int32(0); i < nUsers; i++ {
		u, ok := d.fixed(UsernameMax)
		if !ok {
			return nil, ErrMalformed
		}
		users = append(users, u)
	}
	toVisit := make([]string, 0, nToVisit)
	for i := int32(0); i < nToVisit; i++ {
		v, ok := d.fixed(IPMax)
		if !ok {
			return nil, ErrMalformed
		}
		toVisit = append(toVisit, v)
	}
	return &ReqS2SWho{ID: id, Channel: channel, Requester: requester, Users: users, ToVisit: toVisit}, nil
}
