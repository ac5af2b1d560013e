package wire

// Server -> client reply packets.

// TxtSay delivers a chat message to a subscribed client.
type TxtSay struct {
	Channel  string
	Username string
	Text     string
}

func (p *TxtSay) Marshal() []byte {
	e := newEncoder(tagSize + ChannelMax + UsernameMax + SayMax)
	e.tag(TagTxtSay)
	e.fixed(p.Channel, ChannelMax)
	e.fixed(p.Username, UsernameMax)
	e.fixed(p.Text, SayMax)
	return e.bytes()
}

func UnmarshalTxtSay(data []byte) (*TxtSay, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagTxtSay) {
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
	return &TxtSay{Channel: channel, Username: username, Text: text}, nil
}

// TxtList answers REQ_LIST with the known channel set.
type TxtList struct {
	Channels []string
}

func (p *TxtList) Marshal() []byte {
	e := newEncoder(tagSize + int32Size + len(p.Channels)*ChannelMax)
	e.tag(TagTxtList)
	e.int32(int32(len(p.Channels)))
	for _, c := range p.Channels {
		e.fixed(c, ChannelMax)
	}
	return e.bytes()
}

func UnmarshalTxtList(data []byte) (*TxtList, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagTxtList) {
		return nil, ErrMalformed
	}
	n, ok := d.int32()
	if !ok || n < 0 || int(n)*ChannelMax > d.remaining() {
		return nil, ErrMalformed
	}
	channels := make([]string, 0, n)
	for i := int32(0); i < n; i++ {
		c, ok := d.fixed(ChannelMax)
		if !ok {
			return nil, ErrMalformed
		}
		channels = append(channels, c)
	}
	return &TxtList{Channels: channels}, nil
}

// TxtWho answers REQ_WHO with the usernames subscribed to a channel.
type TxtWho struct {
	Channel   string
	Usernames []string
}

func (p *TxtWho) Marshal() []byte {
	e := newEncoder(tagSize + ChannelMax + int32Size + len(p.Usernames)*UsernameMax)
	e.tag(TagTxtWho)
	e.fixed(p.Channel, ChannelMax)
	e.int32(int32(len(p.Usernames)))
	for _, u := range p.Usernames {
		e.fixed(u, UsernameMax)
	}
	return e.bytes()
}

func UnmarshalTxtWho(data []byte) (*TxtWho, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagTxtWho) {
		return nil, ErrMalformed
	}
	channel, ok := d.fixed(ChannelMax)
	if !ok {
		return nil, ErrMalformed
	}
	n, ok := d.int32()
	if !ok || n < 0 || int(n)*UsernameMax > d.remaining() {
		return nil, ErrMalformed
	}
	usernames := make([]string, 0, n)
	for i := int32(0); i < n; i++ {
		u, ok := d.fixed(UsernameMax)
		if !ok {
			return nil, ErrMalformed
		}
		usernames = append(usernames, u)
	}
	return &TxtWho{Channel: channel, Usernames: usernames}, nil
}

// TxtError carries a human-readable semantic error back to a client.
type TxtError struct {
	Text string
}

func (p *TxtError) Marshal() []byte {
	e := newEncoder(tagSize + SayMax)
	e.tag(TagTxtError)
	e.fixed(p.Text, SayMax)
	return e.bytes()
}

func UnmarshalTxtError(data []byte) (*TxtError, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagTxtError) {
		return nil, ErrMalformed
	}
	text, ok := d.fixed(SayMax)
	if !ok {
		return nil, ErrMalformed
	}
	return &TxtError{Text: text}, nil
}

// TxtVerify answers REQ_VERIFY (or the requesting hop of a forwarded
// REQ_S2S_VERIFY) with whether the requested username is free.
type TxtVerify struct {
	Valid bool
}

func (p *TxtVerify) Marshal() []byte {
	e := newEncoder(tagSize + int32Size)
	e.tag(TagTxtVerify)
	v := uint32(0)
	if p.Valid {
		v = 1
	}
	e.uint32(v)
	return e.bytes()
}

func UnmarshalTxtVerify(data []byte) (*TxtVerify, error) {
	d := newDecoder(data)
	if !d.tagOnly(TagTxtVerify) {
		return nil, ErrMalformed
	}
	v, ok := d.uint32()
	if !ok {
		return nil, ErrMalformed
	}
	return &TxtVerify{Valid: v != 0}, nil
}
