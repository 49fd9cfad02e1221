package domain

// OutcomeCode tags the result variant of a publish attempt.
type OutcomeCode string

const (
	OutcomeSuccess         OutcomeCode = "success"
	OutcomeRateLimited     OutcomeCode = "rate_limited"
	OutcomeValidationError OutcomeCode = "validation_error"
	OutcomeRemoteError     OutcomeCode = "remote_error"
)

// Outcome is the tagged result of a publish attempt. Callers switch on
// Code instead of probing message strings.
type Outcome struct {
	Code    OutcomeCode
	PostURN string // set only for OutcomeSuccess
	Message string
	Err     error // underlying cause for the error variants
}

// Success builds a successful outcome carrying the external post id.
func Success(postURN, message string) Outcome {
	return Outcome{Code: OutcomeSuccess, PostURN: postURN, Message: message}
}

// RateLimited builds the quota-denied outcome. It is an expected policy
// result, not an error path.
func RateLimited(message string) Outcome {
	return Outcome{Code: OutcomeRateLimited, Message: message}
}

// ValidationFailure builds an outcome for a local validation error.
func ValidationFailure(err error) Outcome {
	return Outcome{Code: OutcomeValidationError, Message: err.Error(), Err: err}
}

// RemoteFailure builds an outcome for a remote collaborator error.
func RemoteFailure(err error) Outcome {
	return Outcome{Code: OutcomeRemoteError, Message: err.Error(), Err: err}
}

// OK reports whether the attempt ended in a published post.
func (o Outcome) OK() bool { return o.Code == OutcomeSuccess }
