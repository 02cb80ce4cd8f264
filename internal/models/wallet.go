package models

// PaymentMethod is a named local balance owned by the wallet user.
type PaymentMethod struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// Transaction is an immutable record of a completed top-up. MethodName is a
// snapshot of the payment method's name at the time funds were added; renaming
// or deleting the method later does not touch it.
type Transaction struct {
	ID         int64   `json:"id"`
	MethodName string  `json:"methodName"`
	Amount     float64 `json:"amount"`
	Date       string  `json:"date"`
}
