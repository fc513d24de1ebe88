package context

type Key string

const (
	Params     Key = "params"
	Session    Key = "session"
	RequestID  Key = "request_id"
	AppContext Key = "app_context"
)
