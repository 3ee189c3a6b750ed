package topics

const (
	// Demo ledger
	BetSettled = "bet_settled"

	// Real settlement
	BetSubmitted = "bet_submitted"
	BetRecorded  = "bet_recorded"

	// DLQ
	BetSubmittedDLQ = "bet_submitted_dlq"
)
