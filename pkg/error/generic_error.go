package error

// GenericError is implemented by every error that knows how it should be
// reported to API clients.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}
