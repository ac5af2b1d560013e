package wire

// Decode peeks the tag and dispatches to the matching concrete decoder,
// returning the decoded packet as one of the ReqXxx/TxtXxx types. Callers
// type-switch on the result. Any parse failure collapses to ErrMalformed;
// the event loop's contract is to drop such datagrams, not to report them
// to the sender.
func Decode(data []byte) (any, error) {
	tag, ok := PeekTag(data)
	if !ok {
		return nil, ErrMalformed
	}
	switch tag {
	case TagReqLogin:
		return UnmarshalReqLogin(data)
	case TagReqLogout:
		return UnmarshalReqLogout(data)
	case TagReqJoin:
		return UnmarshalReqJoin(data)
	case TagReqLeave:
		return UnmarshalReqLeave(data)
	case TagReqSay:
		return UnmarshalReqSay(data)
	case TagReqList:
		return UnmarshalReqList(data)
	case TagReqWho:
		return UnmarshalReqWho(data)
	case TagReqKeepAlive:
		return UnmarshalReqKeepAlive(data)
	case TagReqVerify:
		return UnmarshalReqVerify(data)
	case TagTxtSay:
		return UnmarshalTxtSay(data)
	case TagTxtList:
		return UnmarshalTxtList(data)
	case TagTxtWho:
		return UnmarshalTxtWho(data)
	case TagTxtError:
		return UnmarshalTxtError(data)
	case TagTxtVerify:
		return UnmarshalTxtVerify(data)
	case TagReqS2SJoin:
		return UnmarshalReqS2SJoin(data)
	case TagReqS2SLeave:
		return UnmarshalReqS2SLeave(data)
	case TagReqS2SSay:
		return UnmarshalReqS2SSay(data)
	case TagReqS2SList:
		return UnmarshalReqS2SList(data)
	case TagReqS2SWho:
		return UnmarshalReqS2SWho(data)
	case TagReqS2SLeaf:
		return UnmarshalReqS2SLeaf(data)
	case TagReqS2SVerify:
		return UnmarshalReqS2SVerify(data)
	case TagReqS2SKeepAlive:
		return UnmarshalReqS2SKeepAlive(data)
	default:
		return nil, ErrMalformed
	}
}
