package handler

// Request-level error messages
const (
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"
	ErrMsgMissingQueryParam     = "Missing %s query parameter"
	ErrMsgInvalidID             = "Invalid id"
	ErrMsgSamePlayer            = "A series needs two distinct players"
)

// Success messages
const (
	MsgGameResultRecorded   = "Game result recorded"
	MsgGameProgressRecorded = "Game progress recorded"
	MsgOpeningRemoved       = "Opening removed"
)
