package gemini

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// shouldRetry reports whether a provider failure is a rate-limit rejection
// worth a single retry. Anything else is handed back to the caller.
func shouldRetry(err error) bool {
	if s, ok := status.FromError(err); ok {
		return s.Code() == codes.ResourceExhausted
	}
	return false
}
