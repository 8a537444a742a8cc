package model

const (
	MessageVoteAdded   = "Vote added successfully"
	MessageVoteRemoved = "Vote removed successfully"
)
