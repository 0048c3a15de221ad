package chain

import (
	"context"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// Provider-side failure modes the scan recovers from by shrinking its chunk
// width. Everything else propagates as fatal.
var retryableSubstrings = []string{
	"query returned more than",
	"query timeout exceeded",
	"response size exceeded",
	"log response size exceeded",
	"result set too large",
	"too many results",
	"rate limit",
	"too many requests",
	"429",
	"request timed out",
}

var retryableCodes = map[int]struct{}{
	-32000: {}, // generic server error, seen on oversized ranges
	-32005: {}, // limit exceeded
	-32603: {}, // internal error, commonly throttling
}

// IsRetryable reports whether err is a provider-side failure the scanner
// should respond to by shrinking the chunk width and retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		if _, ok := retryableCodes[rpcErr.ErrorCode()]; ok {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, probe := range retryableSubstrings {
		if strings.Contains(msg, probe) {
			return true
		}
	}
	return false
}
