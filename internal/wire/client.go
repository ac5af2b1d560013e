package wire

// Client -> server request packets.

// ReqLogin carries the username a client wants to log in as.
type ReqLogin struct {
	Username string
}

func (p *ReqLogin) Marshal() []byte {
	e := newEncoder(tagSize + UsernameMax)
	e.tag(TagReqLogin)
	e.fixed(p.Username, UsernameMax)
	return e.bytes()
}

func UnmarshalReqLogin(data []byte) (*ReqLogin, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagReqLogin) {
		return nil, ErrMalformed
	}
	username, ok := d.fixed(UsernameMax)
	if !ok {
		return nil, ErrMalformed
	}
	return &ReqLogin{Username: username}, nil
}

// ReqLogout has no payload beyond the tag.
type ReqLogout struct{}

func (p *ReqLogout) Marshal() []byte {
	e := newEncoder(tagSize)
	e.tag(TagReqLogout)
	return e.bytes()
}

func UnmarshalReqLogout(data []byte) (*ReqLogout, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagReqLogout) {
		return nil, ErrMalformed
	}
	return &ReqLogout{}, nil
}

// ReqJoin asks to subscribe the sender to a channel.
type ReqJoin struct {
	Channel string
}

func (p *ReqJoin) Marshal() []byte {
	e := newEncoder(tagSize + ChannelMax)
	e.tag(TagReqJoin)
	e.fixed(p.Channel, ChannelMax)
	return e.bytes()
}

func UnmarshalReqJoin(data []byte) (*ReqJoin, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagReqJoin) {
		return nil, ErrMalformed
	}
	channel, ok := d.fixed(ChannelMax)
	if !ok {
		return nil, ErrMalformed
	}
	return &ReqJoin{Channel: channel}, nil
}

// ReqLeave asks to unsubscribe the sender from a channel.
type ReqLeave struct {
	Channel string
}

func (p *ReqLeave) Marshal() []byte {
	e := newEncoder(tagSize + ChannelMax)
	e.tag(TagReqLeave)
	e.fixed(p.Channel, ChannelMax)
	return e.bytes()
}

func UnmarshalReqLeave(data []byte) (*ReqLeave, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagReqLeave) {
		return nil, ErrMalformed
	}
	channel, ok := d.fixed(ChannelMax)
	if !ok {
		return nil, ErrMalformed
	}
	return &ReqLeave{Channel: channel}, nil
}

// ReqSay carries a chat message for a channel.
type ReqSay struct {
	Channel string
	Text    string
}

func (p *ReqSay) Marshal() []byte {
	e := newEncoder(tagSize + ChannelMax + SayMax)
	e.tag(TagReqSay)
	e.fixed(p.Channel, ChannelMax)
	e.fixed(p.Text, SayMax)
	return e.bytes()
}

func UnmarshalReqSay(data []byte) (*ReqSay, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagReqSay) {
		return nil, ErrMalformed
	}
	channel, ok := d.fixed(ChannelMax)
	if !ok {
		return nil, ErrMalformed
	}
	text, ok := d.fixed(SayMax)
	if !ok {
		return nil, ErrMalformed
	}
	return &ReqSay{Channel: channel, Text: text}, nil
}

// ReqList asks for the full channel set known to the network.
type ReqList struct{}

func (p *ReqList) Marshal() []byte {
	e := newEncoder(tagSize)
	e.tag(TagReqList)
	return e.bytes()
}

func UnmarshalReqList(data []byte) (*ReqList, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagReqList) {
		return nil, ErrMalformed
	}
	return &ReqList{}, nil
}

// ReqWho asks for the usernames subscribed to a channel.
type ReqWho struct {
	Channel string
}

func (p *ReqWho) Marshal() []byte {
	e := newEncoder(tagSize + ChannelMax)
	e.tag(TagReqWho)
	e.fixed(p.Channel, ChannelMax)
	return e.bytes()
}

func UnmarshalReqWho(data []byte) (*ReqWho, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagReqWho) {
		return nil, ErrMalformed
	}
	channel, ok := d.fixed(ChannelMax)
	if !ok {
		return nil, ErrMalformed
	}
	return &ReqWho{Channel: channel}, nil
}

// ReqKeepAlive refreshes the sender's last-activity time; no payload.
type ReqKeepAlive struct{}

func (p *ReqKeepAlive) Marshal() []byte {
	e := newEncoder(tagSize)
	e.tag(TagReqKeepAlive)
	return e.bytes()
}

func UnmarshalReqKeepAlive(data []byte) (*ReqKeepAlive, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagReqKeepAlive) {
		return nil, ErrMalformed
	}
	return &ReqKeepAlive{}, nil
}

// ReqVerify asks whether username is already taken anywhere in the network.
type ReqVerify struct {
	Username string
}

func (p *ReqVerify) Marshal() []byte {
	e := newEncoder(tagSize + UsernameMax)
	e.tag(TagReqVerify)
	e.fixed(p.Username, UsernameMax)
	return e.bytes()
}

func UnmarshalReqVerify(data []byte) (*ReqVerify, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagReqVerify) {
		return nil, ErrMalformed
	}
	username, ok := d.fixed(UsernameMax)
	if !ok {
		return nil, ErrMalformed
	}
	return &ReqVerify{Username: username}, nil
}
