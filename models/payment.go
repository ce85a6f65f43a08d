package models

// PaymentRequestKind selects what the payment collaborator should do.
type PaymentRequestKind string

const (
	PaymentAttach PaymentRequestKind = "attach"
	PaymentRefund PaymentRequestKind = "refund"
)

// PaymentRequest asks the payment collaborator to associate a charge with a
// booking or to refund one.
type PaymentRequest struct {
	Kind        PaymentRequestKind `json:"kind"`
	BookingID   string             `json:"bookingId"`
	CustomerID  string             `json:"customerId"`
	Amount      float64            `json:"amount"`
	Currency    string             `json:"currency"`
	PaymentRef  string             `json:"paymentRef,omitempty"`
	Description string             `json:"description,omitempty"`
}
