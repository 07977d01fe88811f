package types

type HealthRequest struct{}

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type InitiatePaymentRequest struct {
	OrderId uint64 `json:"order_id,string"`
}

func (r *InitiatePaymentRequest) GetOrderId() uint64 {
	if r == nil {
		return 0
	}
	return r.OrderId
}

type GetOrderRequest struct {
	Id uint64 `json:"id,string"`
}

func (r *GetOrderRequest) GetId() uint64 {
	if r == nil {
		return 0
	}
	return r.Id
}

// GatewayCallbackRequest is a gateway notification or a shopper returning from the checkout.
type GatewayCallbackRequest struct {
	OrderId      uint64 `json:"order_id,string"`
	MerchantTxId string `json:"merchant_tx_id"`
	Source       string `json:"source"`
	Payload      string `json:"payload"`
}

func (r *GatewayCallbackRequest) GetOrderId() uint64 {
	if r == nil {
		return 0
	}
	return r.OrderId
}

func (r *GatewayCallbackRequest) GetMerchantTxId() string {
	if r == nil {
		return ""
	}
	return r.MerchantTxId
}

func (r *GatewayCallbackRequest) GetSource() string {
	if r == nil {
		return ""
	}
	return r.Source
}

func (r *GatewayCallbackRequest) GetPayload() string {
	if r == nil {
		return ""
	}
	return r.Payload
}

// OrderOperationRequest carries a capture, void or refund. Amount is a decimal string.
type OrderOperationRequest struct {
	OrderId      uint64 `json:"order_id,string"`
	MerchantTxId string `json:"merchant_tx_id"`
	Amount       string `json:"amount"`
}

func (r *OrderOperationRequest) GetOrderId() uint64 {
	if r == nil {
		return 0
	}
	return r.OrderId
}

func (r *OrderOperationRequest) GetMerchantTxId() string {
	if r == nil {
		return ""
	}
	return r.MerchantTxId
}

func (r *OrderOperationRequest) GetAmount() string {
	if r == nil {
		return ""
	}
	return r.Amount
}

type CheckoutResponse struct {
	OrderId      uint64 `json:"order_id,string"`
	Mode         string `json:"mode"`
	MerchantTxId string `json:"merchant_tx_id"`
	Html         string `json:"html"`
}

type Order struct {
	Id            uint64 `json:"id,string"`
	Total         string `json:"total"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status,omitempty"`
	TransactionId string `json:"transaction_id,omitempty"`
	Message       string `json:"message,omitempty"`
	MessageKind   string `json:"message_kind,omitempty"`
	PaidAt        string `json:"paid_at,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type OrderNote struct {
	Id        uint64 `json:"id,string"`
	Note      string `json:"note"`
	CreatedAt string `json:"created_at"`
}

type Transaction struct {
	Id             uint64 `json:"id,string"`
	MerchantTxId   string `json:"merchant_tx_id"`
	Action         string `json:"action"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	Environment    string `json:"environment"`
	Status         string `json:"status"`
	RefundedAmount string `json:"refunded_amount"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type OrderEnvelopeResponse struct {
	Order *Order `json:"order"`
}

type OrderDetailsResponse struct {
	Order        *Order         `json:"order"`
	Notes        []*OrderNote   `json:"notes"`
	Transactions []*Transaction `json:"transactions"`
}

type ListPaymentSolutionsRequest struct{}

type PaymentSolution struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type PaymentSolutionsResponse struct {
	PaymentSolutions []*PaymentSolution `json:"payment_solutions"`
}
