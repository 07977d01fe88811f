package gateway

import (
	"fmt"
	"strings"
)

type Action string

const (
	ActionPurchase            Action = "PURCHASE"
	ActionAuth                Action = "AUTH"
	ActionGetStatus           Action = "GET_STATUS"
	ActionGetAvailablePaysols Action = "GET_AVAILABLE_PAYSOLS"
	ActionRefund              Action = "REFUND"
	ActionCapture             Action = "CAPTURE"
	ActionVoid                Action = "VOID"
)

// expectedStatus is the status a successful financial operation must report.
func (a Action) expectedStatus() (Status, bool) {
	switch a {
	case ActionRefund:
		return StatusSetForRefund, true
	case ActionCapture:
		return StatusSetForCapture, true
	case ActionVoid:
		return StatusVoid, true
	default:
		return "", false
	}
}

func (a Action) executable() bool {
	switch a {
	case ActionGetStatus, ActionRefund, ActionCapture, ActionVoid:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusSuccess          Status = "SUCCESS"
	StatusNotSetForCapture Status = "NOT_SET_FOR_CAPTURE"
	StatusSetForCapture    Status = "SET_FOR_CAPTURE"
	StatusSetForRefund     Status = "SET_FOR_REFUND"
	StatusVoid             Status = "VOID"
	StatusError            Status = "ERROR"
	StatusDeclined         Status = "DECLINED"
	StatusIncomplete       Status = "INCOMPLETE"
)

func (s Status) Failed() bool {
	switch s {
	case StatusError, StatusDeclined, StatusIncomplete:
		return true
	default:
		return false
	}
}

type Mode string

const (
	ModeEmbedded   Mode = "iframe"
	ModeRedirect   Mode = "redirect"
	ModeHostedPage Mode = "hostedPayPage"
)

func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "iframe", "embedded":
		return ModeEmbedded, nil
	case "redirect", "standalone":
		return ModeRedirect, nil
	case "hostedpaypage", "hosted":
		return ModeHostedPage, nil
	default:
		return "", fmt.Errorf("unknown payment mode %q", raw)
	}
}

func (m Mode) integrationMode() string {
	switch m {
	case ModeRedirect:
		return "standalone"
	case ModeHostedPage:
		return "hostedPayPage"
	default:
		return "iframe"
	}
}

type Outcome int

const (
	OutcomeApproved Outcome = iota + 1
	OutcomeOnHold
	OutcomeDeclined
	// OutcomeFailed is a gateway answer without a decisive status.
	OutcomeFailed
	OutcomeNotYetCapturable
	OutcomeTokenFailed
	OutcomeTransportError
	OutcomeProtocolError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApproved:
		return "approved"
	case OutcomeOnHold:
		return "on_hold"
	case OutcomeDeclined:
		return "declined"
	case OutcomeFailed:
		return "failed"
	case OutcomeNotYetCapturable:
		return "not_yet_capturable"
	case OutcomeTokenFailed:
		return "token_failed"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeProtocolError:
		return "protocol_error"
	default:
		return "unknown"
	}
}
