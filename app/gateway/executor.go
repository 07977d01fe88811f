package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Operation struct {
	Action       Action
	MerchantTxID string
	// Amount is sent for CAPTURE and REFUND when set.
	Amount *decimal.Decimal
}

type ExecutionResult struct {
	Action       Action
	MerchantTxID string
	Outcome      Outcome
	Status       Status
	Errors       string
	Err          error
}

func (r *ExecutionResult) Succeeded() bool {
	return r != nil && (r.Outcome == OutcomeApproved || r.Outcome == OutcomeOnHold)
}

type paymentResponse struct {
	Result       string          `json:"result"`
	Status       string          `json:"status"`
	MerchantTxID flexString      `json:"merchantTxId"`
	Errors       json.RawMessage `json:"errors"`
}

// Execute runs the token then payment call for op and classifies the answer. It never touches orders.
func (c *Client) Execute(ctx context.Context, env Environment, op Operation) *ExecutionResult {
	result := &ExecutionResult{Action: op.Action, MerchantTxID: strings.TrimSpace(op.MerchantTxID)}
	if !op.Action.executable() {
		result.Outcome = OutcomeTokenFailed
		result.Err = fmt.Errorf("%w: action %s cannot be executed", ErrConfiguration, op.Action)
		return result
	}

	params := url.Values{}
	if op.Action == ActionGetStatus {
		params.Set("merchantTxId", result.MerchantTxID)
	} else {
		params.Set("originalMerchantTxId", result.MerchantTxID)
	}
	if op.Amount != nil {
		params.Set("amount", op.Amount.StringFixed(2))
	}

	token, err := c.AcquireToken(ctx, env, op.Action, params)
	if err != nil {
		result.Outcome = OutcomeTokenFailed
		result.Err = err
		return result
	}

	values := url.Values{}
	values.Set("merchantId", c.credentials(env).MerchantID)
	values.Set("token", token)
	if op.Action == ActionGetStatus {
		values.Set("action", string(ActionGetStatus))
		values.Set("merchantTxId", result.MerchantTxID)
	}

	body, err := c.postForm(ctx, "payment", op.Action, c.endpoints(env).PaymentURL, values)
	if err != nil {
		result.Outcome = OutcomeTransportError
		result.Err = err
		return result
	}

	if op.Action == ActionRefund && strings.Contains(string(body), notCapturedMarker) {
		result.Outcome = OutcomeNotYetCapturable
		result.Errors = notCapturedMarker
		result.Err = ErrNotYetCapturable
		return result
	}

	var resp paymentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		result.Outcome = OutcomeProtocolError
		result.Err = fmt.Errorf("%w: payment response: %v", ErrProtocol, err)
		return result
	}
	if strings.TrimSpace(resp.Result) == "" {
		result.Outcome = OutcomeProtocolError
		result.Err = fmt.Errorf("%w: payment response has no result", ErrProtocol)
		return result
	}

	result.Status = Status(strings.ToUpper(strings.TrimSpace(resp.Status)))
	result.Errors = flattenErrors(resp.Errors)
	if result.MerchantTxID == "" {
		result.MerchantTxID = strings.TrimSpace(string(resp.MerchantTxID))
	}

	classify(result, resp.Result == "success")

	c.logger.WithFields(logrus.Fields{
		"action":         op.Action,
		"merchant_tx_id": result.MerchantTxID,
		"status":         result.Status,
		"outcome":        result.Outcome.String(),
	}).Info("gateway operation executed")

	return result
}

func classify(result *ExecutionResult, success bool) {
	if result.Action == ActionGetStatus {
		switch {
		case result.Status.Failed():
			result.Outcome = OutcomeDeclined
		case !success:
			result.Outcome = OutcomeFailed
		case result.Status == StatusNotSetForCapture:
			result.Outcome = OutcomeOnHold
		default:
			result.Outcome = OutcomeApproved
		}
	} else {
		expected, _ := result.Action.expectedStatus()
		if success && result.Status == expected {
			result.Outcome = OutcomeApproved
		} else {
			result.Outcome = OutcomeFailed
		}
	}

	if result.Outcome == OutcomeDeclined || result.Outcome == OutcomeFailed {
		reason := result.Errors
		if reason == "" {
			reason = "status " + string(result.Status)
		}
		result.Err = fmt.Errorf("%w: %s", ErrDeclined, reason)
	}
}
