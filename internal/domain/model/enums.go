package model

// WindowKind distinguishes the initial voting window from the extended one.
type WindowKind string

const (
	WindowInitial  WindowKind = "initial"
	WindowExtended WindowKind = "extended"
)

// StatusKind is the vote status reported on a request's head commit.
type StatusKind string

const (
	StatusAccepted StatusKind = "accepted"
	StatusRejected StatusKind = "rejected"
	StatusPending  StatusKind = "pending"
)

// NoticeKind is the kind of comment left on a request once it is decided.
type NoticeKind string

const (
	NoticeAccept NoticeKind = "accept"
	NoticeReject NoticeKind = "reject"
)

// RecordOutcome is the terminal outcome archived with a vote record.
type RecordOutcome string

const (
	RecordMerged RecordOutcome = "merged"
	RecordClosed RecordOutcome = "closed"
)

// Labels applied to requests by the decision engine.
const (
	LabelAccepted    = "accepted"
	LabelRejected    = "rejected"
	LabelCannotMerge = "can't merge"
)
