package fix

import (
	"strconv"

	"github.com/quickfixgo/enum"
)

// Tag 是 FIX 字段编号.
type Tag int

func (t Tag) String() string {
	return strconv.Itoa(int(t))
}

const (
	// SOH 字段分隔符.
	SOH byte = 0x01
)

// 标准头/尾.
const (
	TagBeginString      Tag = 8
	TagBodyLength       Tag = 9
	TagCheckSum         Tag = 10
	TagMsgSeqNum        Tag = 34
	TagMsgType          Tag = 35
	TagPossDupFlag      Tag = 43
	TagSenderCompID     Tag = 49
	TagSenderSubID      Tag = 50
	TagSendingTime      Tag = 52
	TagTargetCompID     Tag = 56
	TagTargetSubID      Tag = 57
	TagSignature        Tag = 89
	TagSecureDataLen    Tag = 90
	TagSecureData       Tag = 91
	TagSignatureLength  Tag = 93
	TagPossResend       Tag = 97
	TagOnBehalfOfCompID Tag = 115
	TagOrigSendingTime  Tag = 122
	TagDeliverToCompID  Tag = 128
	TagNoHops           Tag = 627
	TagHopCompID        Tag = 628
	TagHopSendingTime   Tag = 629
	TagHopRefID         Tag = 630
)

// 会话层消息字段.
const (
	TagRefSeqNum           Tag = 45
	TagRawDataLength       Tag = 95
	TagRawData             Tag = 96
	TagEncryptMethod       Tag = 98
	TagHeartBtInt          Tag = 108
	TagTestReqID           Tag = 112
	TagResetSeqNumFlag     Tag = 141
	TagRefTagID            Tag = 371
	TagRefMsgType          Tag = 372
	TagSessionRejectReason Tag = 373
	TagUsername            Tag = 553
	TagPassword            Tag = 554
)

// 应用层字段.
const (
	TagAccount                Tag = 1
	TagAvgPx                  Tag = 6
	TagClOrdID                Tag = 11
	TagCumQty                 Tag = 14
	TagCurrency               Tag = 15
	TagExecID                 Tag = 17
	TagHandlInst              Tag = 21
	TagLastPx                 Tag = 31
	TagLastQty                Tag = 32
	TagNoLinesOfText          Tag = 33
	TagOrderID                Tag = 37
	TagOrderQty               Tag = 38
	TagOrdStatus              Tag = 39
	TagOrdType                Tag = 40
	TagOrigClOrdID            Tag = 41
	TagOrigTime               Tag = 42
	TagPrice                  Tag = 44
	TagQuantity               Tag = 53
	TagSide                   Tag = 54
	TagSymbol                 Tag = 55
	TagText                   Tag = 58
	TagTimeInForce            Tag = 59
	TagTransactTime           Tag = 60
	TagValidUntilTime         Tag = 62
	TagListID                 Tag = 66
	TagAllocID                Tag = 70
	TagAllocTransType         Tag = 71
	TagNoOrders               Tag = 73
	TagTradeDate              Tag = 75
	TagNoAllocs               Tag = 78
	TagAllocAccount           Tag = 79
	TagAllocQty               Tag = 80
	TagEmailType              Tag = 94
	TagQuoteID                Tag = 117
	TagNoExecs                Tag = 124
	TagQuoteReqID             Tag = 131
	TagBidPx                  Tag = 132
	TagOfferPx                Tag = 133
	TagBidSize                Tag = 134
	TagOfferSize              Tag = 135
	TagNoMiscFees             Tag = 136
	TagMiscFeeAmt             Tag = 137
	TagMiscFeeCurr            Tag = 138
	TagMiscFeeType            Tag = 139
	TagNoRelatedSym           Tag = 146
	TagSubject                Tag = 147
	TagExecType               Tag = 150
	TagLeavesQty              Tag = 151
	TagEmailThreadID          Tag = 164
	TagSecondaryOrderID       Tag = 198
	TagNoRoutingIDs           Tag = 215
	TagRoutingType            Tag = 216
	TagRoutingID              Tag = 217
	TagDefBidSize             Tag = 293
	TagDefOfferSize           Tag = 294
	TagNoQuoteEntries         Tag = 295
	TagNoQuoteSets            Tag = 296
	TagQuoteStatus            Tag = 297
	TagQuoteEntryID           Tag = 299
	TagQuoteRejectReason      Tag = 300
	TagQuoteSetID             Tag = 302
	TagTotNoQuoteEntries      Tag = 304
	TagUnderlyingSymbol       Tag = 311
	TagEncodedTextLen         Tag = 354
	TagEncodedText            Tag = 355
	TagAllocPrice             Tag = 366
	TagQuoteEntryRejectReason Tag = 368
	TagExpireDate             Tag = 432
	TagIndividualAllocID      Tag = 467
	TagQuoteType              Tag = 537
	TagAllocType              Tag = 626
	TagLastFragment           Tag = 893
	TagQuoteEntryStatus       Tag = 1167
)

// 常用 MsgType.
const (
	MsgTypeHeartbeat                = string(enum.MsgType_HEARTBEAT)
	MsgTypeReject                   = string(enum.MsgType_REJECT)
	MsgTypeExecutionReport          = string(enum.MsgType_EXECUTION_REPORT)
	MsgTypeLogon                    = string(enum.MsgType_LOGON)
	MsgTypeEmail                    = string(enum.MsgType_EMAIL)
	MsgTypeNewOrderSingle           = string(enum.MsgType_ORDER_SINGLE)
	MsgTypeAllocationInstruction    = string(enum.MsgType_ALLOCATION_INSTRUCTION)
	MsgTypeMassQuoteAcknowledgement = string(enum.MsgType_MASS_QUOTE_ACKNOWLEDGEMENT)
	MsgTypeMassQuote                = string(enum.MsgType_MASS_QUOTE)
)
