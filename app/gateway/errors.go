package gateway

import "errors"

var (
	ErrConfiguration    = errors.New("gateway credentials are not configured")
	ErrTransport        = errors.New("gateway transport error")
	ErrProtocol         = errors.New("unexpected gateway response")
	ErrTokenRejected    = errors.New("gateway token rejected")
	ErrDeclined         = errors.New("gateway declined the operation")
	ErrNotYetCapturable = errors.New("original transaction is not yet captured")
)

// Refund responses carrying this text mean the original charge is still in the capture queue.
const notCapturedMarker = "Original transaction not SUCCESS"
