package dictionary

import (
	"sync"

	"github.com/wyfcoding/fixmsg/connectivity/fix"
)

var (
	fix44     *Dictionary
	fix44Once sync.Once
)

// FIX44 返回内置的 FIX.4.4 子集字典, 进程内只构建一次并共享.
func FIX44() *Dictionary {
	fix44Once.Do(func() {
		fix44 = buildFIX44()
	})
	return fix44
}

var fix44Fields = []FieldDef{
	// 标准头/尾
	{fix.TagBeginString, "BeginString", fix.TypeString},
	{fix.TagBodyLength, "BodyLength", fix.TypeInt},
	{fix.TagCheckSum, "CheckSum", fix.TypeString},
	{fix.TagMsgSeqNum, "MsgSeqNum", fix.TypeInt},
	{fix.TagMsgType, "MsgType", fix.TypeString},
	{fix.TagPossDupFlag, "PossDupFlag", fix.TypeBool},
	{fix.TagSenderCompID, "SenderCompID", fix.TypeString},
	{fix.TagSenderSubID, "SenderSubID", fix.TypeString},
	{fix.TagSendingTime, "SendingTime", fix.TypeTimestamp},
	{fix.TagTargetCompID, "TargetCompID", fix.TypeString},
	{fix.TagTargetSubID, "TargetSubID", fix.TypeString},
	{fix.TagSignature, "Signature", fix.TypeData},
	{fix.TagSecureDataLen, "SecureDataLen", fix.TypeInt},
	{fix.TagSecureData, "SecureData", fix.TypeData},
	{fix.TagSignatureLength, "SignatureLength", fix.TypeInt},
	{fix.TagPossResend, "PossResend", fix.TypeBool},
	{fix.TagOnBehalfOfCompID, "OnBehalfOfCompID", fix.TypeString},
	{fix.TagOrigSendingTime, "OrigSendingTime", fix.TypeTimestamp},
	{fix.TagDeliverToCompID, "DeliverToCompID", fix.TypeString},
	{fix.TagNoHops, "NoHops", fix.TypeInt},
	{fix.TagHopCompID, "HopCompID", fix.TypeString},
	{fix.TagHopSendingTime, "HopSendingTime", fix.TypeTimestamp},
	{fix.TagHopRefID, "HopRefID", fix.TypeInt},

	// 会话层
	{fix.TagRefSeqNum, "RefSeqNum", fix.TypeInt},
	{fix.TagRawDataLength, "RawDataLength", fix.TypeInt},
	{fix.TagRawData, "RawData", fix.TypeData},
	{fix.TagEncryptMethod, "EncryptMethod", fix.TypeInt},
	{fix.TagHeartBtInt, "HeartBtInt", fix.TypeInt},
	{fix.TagTestReqID, "TestReqID", fix.TypeString},
	{fix.TagResetSeqNumFlag, "ResetSeqNumFlag", fix.TypeBool},
	{fix.TagRefTagID, "RefTagID", fix.TypeInt},
	{fix.TagRefMsgType, "RefMsgType", fix.TypeString},
	{fix.TagSessionRejectReason, "SessionRejectReason", fix.TypeInt},
	{fix.TagUsername, "Username", fix.TypeString},
	{fix.TagPassword, "Password", fix.TypeString},

	// 应用层
	{fix.TagAccount, "Account", fix.TypeString},
	{fix.TagAvgPx, "AvgPx", fix.TypeDecimal},
	{fix.TagClOrdID, "ClOrdID", fix.TypeString},
	{fix.TagCumQty, "CumQty", fix.TypeDecimal},
	{fix.TagCurrency, "Currency", fix.TypeString},
	{fix.TagExecID, "ExecID", fix.TypeString},
	{fix.TagHandlInst, "HandlInst", fix.TypeChar},
	{fix.TagLastPx, "LastPx", fix.TypeDecimal},
	{fix.TagLastQty, "LastQty", fix.TypeDecimal},
	{fix.TagNoLinesOfText, "NoLinesOfText", fix.TypeInt},
	{fix.TagOrderID, "OrderID", fix.TypeString},
	{fix.TagOrderQty, "OrderQty", fix.TypeDecimal},
	{fix.TagOrdStatus, "OrdStatus", fix.TypeChar},
	{fix.TagOrdType, "OrdType", fix.TypeChar},
	{fix.TagOrigClOrdID, "OrigClOrdID", fix.TypeString},
	{fix.TagOrigTime, "OrigTime", fix.TypeTimestamp},
	{fix.TagPrice, "Price", fix.TypeDecimal},
	{fix.TagQuantity, "Quantity", fix.TypeDecimal},
	{fix.TagSide, "Side", fix.TypeChar},
	{fix.TagSymbol, "Symbol", fix.TypeString},
	{fix.TagText, "Text", fix.TypeString},
	{fix.TagTimeInForce, "TimeInForce", fix.TypeChar},
	{fix.TagTransactTime, "TransactTime", fix.TypeTimestamp},
	{fix.TagValidUntilTime, "ValidUntilTime", fix.TypeTimestamp},
	{fix.TagListID, "ListID", fix.TypeString},
	{fix.TagAllocID, "AllocID", fix.TypeString},
	{fix.TagAllocTransType, "AllocTransType", fix.TypeChar},
	{fix.TagNoOrders, "NoOrders", fix.TypeInt},
	{fix.TagTradeDate, "TradeDate", fix.TypeDate},
	{fix.TagNoAllocs, "NoAllocs", fix.TypeInt},
	{fix.TagAllocAccount, "AllocAccount", fix.TypeString},
	{fix.TagAllocQty, "AllocQty", fix.TypeDecimal},
	{fix.TagEmailType, "EmailType", fix.TypeChar},
	{fix.TagQuoteID, "QuoteID", fix.TypeString},
	{fix.TagNoExecs, "NoExecs", fix.TypeInt},
	{fix.TagQuoteReqID, "QuoteReqID", fix.TypeString},
	{fix.TagBidPx, "BidPx", fix.TypeDecimal},
	{fix.TagOfferPx, "OfferPx", fix.TypeDecimal},
	{fix.TagBidSize, "BidSize", fix.TypeDecimal},
	{fix.TagOfferSize, "OfferSize", fix.TypeDecimal},
	{fix.TagNoMiscFees, "NoMiscFees", fix.TypeInt},
	{fix.TagMiscFeeAmt, "MiscFeeAmt", fix.TypeDecimal},
	{fix.TagMiscFeeCurr, "MiscFeeCurr", fix.TypeString},
	{fix.TagMiscFeeType, "MiscFeeType", fix.TypeString},
	{fix.TagNoRelatedSym, "NoRelatedSym", fix.TypeInt},
	{fix.TagSubject, "Subject", fix.TypeString},
	{fix.TagExecType, "ExecType", fix.TypeChar},
	{fix.TagLeavesQty, "LeavesQty", fix.TypeDecimal},
	{fix.TagEmailThreadID, "EmailThreadID", fix.TypeString},
	{fix.TagSecondaryOrderID, "SecondaryOrderID", fix.TypeString},
	{fix.TagNoRoutingIDs, "NoRoutingIDs", fix.TypeInt},
	{fix.TagRoutingType, "RoutingType", fix.TypeInt},
	{fix.TagRoutingID, "RoutingID", fix.TypeString},
	{fix.TagDefBidSize, "DefBidSize", fix.TypeDecimal},
	{fix.TagDefOfferSize, "DefOfferSize", fix.TypeDecimal},
	{fix.TagNoQuoteEntries, "NoQuoteEntries", fix.TypeInt},
	{fix.TagNoQuoteSets, "NoQuoteSets", fix.TypeInt},
	{fix.TagQuoteStatus, "QuoteStatus", fix.TypeInt},
	{fix.TagQuoteEntryID, "QuoteEntryID", fix.TypeString},
	{fix.TagQuoteRejectReason, "QuoteRejectReason", fix.TypeInt},
	{fix.TagQuoteSetID, "QuoteSetID", fix.TypeString},
	{fix.TagTotNoQuoteEntries, "TotNoQuoteEntries", fix.TypeInt},
	{fix.TagUnderlyingSymbol, "UnderlyingSymbol", fix.TypeString},
	{fix.TagEncodedTextLen, "EncodedTextLen", fix.TypeInt},
	{fix.TagEncodedText, "EncodedText", fix.TypeData},
	{fix.TagAllocPrice, "AllocPrice", fix.TypeDecimal},
	{fix.TagQuoteEntryRejectReason, "QuoteEntryRejectReason", fix.TypeInt},
	{fix.TagExpireDate, "ExpireDate", fix.TypeDate},
	{fix.TagIndividualAllocID, "IndividualAllocID", fix.TypeString},
	{fix.TagQuoteType, "QuoteType", fix.TypeInt},
	{fix.TagAllocType, "AllocType", fix.TypeInt},
	{fix.TagLastFragment, "LastFragment", fix.TypeBool},
	{fix.TagQuoteEntryStatus, "QuoteEntryStatus", fix.TypeInt},
}

// fix44DataLengths 数据字段与其长度字段.
var fix44DataLengths = map[fix.Tag]fix.Tag{
	fix.TagSecureData:  fix.TagSecureDataLen,
	fix.TagRawData:     fix.TagRawDataLength,
	fix.TagSignature:   fix.TagSignatureLength,
	fix.TagEncodedText: fix.TagEncodedTextLen,
}

func miscFees() *fix.GroupDef {
	return fix.NewGroupDef(fix.TagNoMiscFees, "NoMiscFees",
		[]fix.Tag{fix.TagMiscFeeAmt, fix.TagMiscFeeCurr, fix.TagMiscFeeType})
}

func linesOfText() *fix.GroupDef {
	return fix.NewGroupDef(fix.TagNoLinesOfText, "NoLinesOfText",
		[]fix.Tag{fix.TagText, fix.TagEncodedTextLen, fix.TagEncodedText})
}

func buildFIX44() *Dictionary {
	b := NewBuilder("FIX.4.4")
	for _, f := range fix44Fields {
		b.Field(f.Tag, f.Name, f.Type)
	}
	for data, length := range fix44DataLengths {
		b.DataLength(data, length)
	}

	b.Header([]fix.Tag{
		fix.TagBeginString, fix.TagBodyLength, fix.TagMsgType,
		fix.TagSenderCompID, fix.TagTargetCompID, fix.TagOnBehalfOfCompID, fix.TagDeliverToCompID,
		fix.TagSecureDataLen, fix.TagSecureData, fix.TagMsgSeqNum,
		fix.TagSenderSubID, fix.TagTargetSubID, fix.TagPossDupFlag, fix.TagPossResend,
		fix.TagSendingTime, fix.TagOrigSendingTime, fix.TagNoHops,
	}, fix.NewGroupDef(fix.TagNoHops, "NoHops",
		[]fix.Tag{fix.TagHopCompID, fix.TagHopSendingTime, fix.TagHopRefID}))

	b.Trailer([]fix.Tag{fix.TagSignatureLength, fix.TagSignature, fix.TagCheckSum})

	b.Message(fix.MsgTypeHeartbeat, "Heartbeat", []fix.Tag{fix.TagTestReqID})

	b.Message(fix.MsgTypeLogon, "Logon", []fix.Tag{
		fix.TagEncryptMethod, fix.TagHeartBtInt, fix.TagRawDataLength, fix.TagRawData,
		fix.TagResetSeqNumFlag, fix.TagUsername, fix.TagPassword,
	})

	b.Message(fix.MsgTypeReject, "Reject", []fix.Tag{
		fix.TagRefSeqNum, fix.TagRefTagID, fix.TagRefMsgType, fix.TagSessionRejectReason,
		fix.TagText, fix.TagEncodedTextLen, fix.TagEncodedText,
	})

	b.Message(fix.MsgTypeNewOrderSingle, "NewOrderSingle", []fix.Tag{
		fix.TagClOrdID, fix.TagAccount, fix.TagNoAllocs, fix.TagHandlInst,
		fix.TagSymbol, fix.TagSide, fix.TagTransactTime, fix.TagOrderQty,
		fix.TagOrdType, fix.TagPrice, fix.TagCurrency, fix.TagTimeInForce, fix.TagExpireDate,
		fix.TagText, fix.TagEncodedTextLen, fix.TagEncodedText,
	}, fix.NewGroupDef(fix.TagNoAllocs, "NoAllocs",
		[]fix.Tag{fix.TagAllocAccount, fix.TagIndividualAllocID, fix.TagAllocQty}))

	b.Message(fix.MsgTypeExecutionReport, "ExecutionReport", []fix.Tag{
		fix.TagOrderID, fix.TagSecondaryOrderID, fix.TagClOrdID, fix.TagOrigClOrdID,
		fix.TagExecID, fix.TagExecType, fix.TagOrdStatus, fix.TagAccount,
		fix.TagSymbol, fix.TagSide, fix.TagOrderQty, fix.TagOrdType, fix.TagPrice,
		fix.TagTimeInForce, fix.TagLastQty, fix.TagLastPx, fix.TagLeavesQty,
		fix.TagCumQty, fix.TagAvgPx, fix.TagTradeDate, fix.TagTransactTime, fix.TagNoMiscFees,
		fix.TagText, fix.TagEncodedTextLen, fix.TagEncodedText,
	}, miscFees())

	b.Message(fix.MsgTypeAllocationInstruction, "AllocationInstruction", []fix.Tag{
		fix.TagAllocID, fix.TagAllocTransType, fix.TagAllocType, fix.TagNoOrders, fix.TagNoExecs,
		fix.TagSide, fix.TagSymbol, fix.TagQuantity, fix.TagAvgPx, fix.TagCurrency,
		fix.TagTradeDate, fix.TagTransactTime, fix.TagNoAllocs, fix.TagText,
	},
		fix.NewGroupDef(fix.TagNoOrders, "NoOrders",
			[]fix.Tag{fix.TagClOrdID, fix.TagOrderID, fix.TagSecondaryOrderID, fix.TagListID}),
		fix.NewGroupDef(fix.TagNoExecs, "NoExecs",
			[]fix.Tag{fix.TagLastQty, fix.TagExecID, fix.TagLastPx}),
		fix.NewGroupDef(fix.TagNoAllocs, "NoAllocs",
			[]fix.Tag{fix.TagAllocAccount, fix.TagIndividualAllocID, fix.TagAllocPrice,
				fix.TagAllocQty, fix.TagNoMiscFees},
			miscFees()),
	)

	b.Message(fix.MsgTypeEmail, "Email", []fix.Tag{
		fix.TagEmailThreadID, fix.TagEmailType, fix.TagOrigTime, fix.TagSubject,
		fix.TagNoRoutingIDs, fix.TagNoRelatedSym, fix.TagOrderID, fix.TagClOrdID,
		fix.TagNoLinesOfText, fix.TagRawDataLength, fix.TagRawData,
	},
		fix.NewGroupDef(fix.TagNoRoutingIDs, "NoRoutingIDs",
			[]fix.Tag{fix.TagRoutingType, fix.TagRoutingID}),
		fix.NewGroupDef(fix.TagNoRelatedSym, "NoRelatedSym",
			[]fix.Tag{fix.TagSymbol}),
		linesOfText(),
	)

	quoteEntries := func(extra ...fix.Tag) *fix.GroupDef {
		fields := append([]fix.Tag{
			fix.TagQuoteEntryID, fix.TagSymbol, fix.TagBidPx, fix.TagOfferPx,
			fix.TagBidSize, fix.TagOfferSize,
		}, extra...)
		return fix.NewGroupDef(fix.TagNoQuoteEntries, "NoQuoteEntries", fields)
	}

	b.Message(fix.MsgTypeMassQuote, "MassQuote", []fix.Tag{
		fix.TagQuoteReqID, fix.TagQuoteID, fix.TagQuoteType, fix.TagAccount,
		fix.TagDefBidSize, fix.TagDefOfferSize, fix.TagNoQuoteSets,
	}, fix.NewGroupDef(fix.TagNoQuoteSets, "NoQuoteSets",
		[]fix.Tag{fix.TagQuoteSetID, fix.TagUnderlyingSymbol, fix.TagTotNoQuoteEntries,
			fix.TagLastFragment, fix.TagNoQuoteEntries},
		quoteEntries(fix.TagValidUntilTime, fix.TagTransactTime, fix.TagCurrency)))

	b.Message(fix.MsgTypeMassQuoteAcknowledgement, "MassQuoteAcknowledgement", []fix.Tag{
		fix.TagQuoteReqID, fix.TagQuoteID, fix.TagQuoteStatus, fix.TagQuoteRejectReason,
		fix.TagQuoteType, fix.TagAccount, fix.TagText, fix.TagNoQuoteSets,
	}, fix.NewGroupDef(fix.TagNoQuoteSets, "NoQuoteSets",
		[]fix.Tag{fix.TagQuoteSetID, fix.TagUnderlyingSymbol, fix.TagTotNoQuoteEntries,
			fix.TagLastFragment, fix.TagNoQuoteEntries},
		quoteEntries(fix.TagQuoteEntryStatus, fix.TagQuoteEntryRejectReason)))

	return b.MustBuild()
}
