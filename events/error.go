package events

type Error struct {
	Base
	RequestId string
	Err       error
}

func NewErrorEvent(requestId string, err error) *Error {
	return &Error{
		RequestId: requestId,
		Err:       err,
	}
}
