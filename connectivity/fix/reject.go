package fix

// NewReject 根据编解码错误构造会话层 Reject(35=3) 消息, 只负责构造, 不负责发送.
// refSeqNum 为被拒报文的 MsgSeqNum. 非本包错误以及 CheckSum/BodyLength 损坏的报文
// (按会话规则应直接丢弃) 返回 false.
func NewReject(refSeqNum int, err error) (*Message, bool) {
	info, ok := Inspect(err)
	if !ok || info.Garbled {
		return nil, false
	}
	m := NewMessage(MsgTypeReject)
	m.Body.SetInt(TagRefSeqNum, refSeqNum)
	if info.Tag != 0 {
		m.Body.SetInt(TagRefTagID, int(info.Tag))
	}
	if info.MsgType != "" {
		m.Body.SetString(TagRefMsgType, info.MsgType)
	}
	m.Body.SetString(TagSessionRejectReason, string(info.Reason))
	m.Body.SetString(TagText, rejectText(info))
	return m, true
}

func rejectText(info RejectInfo) string {
	if info.Err.Detail != "" {
		return info.Err.Message + ": " + info.Err.Detail
	}
	return info.Err.Message
}
