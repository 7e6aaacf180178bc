package paymentprovider

// InitializeRequest is the body of a mobile-money charge initialization.
type InitializeRequest struct {
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	MobileNumber string  `json:"mobile"`
	Network      string  `json:"network"`
	Email        string  `json:"email,omitempty"`
	Reference    string  `json:"charge_id"`
	CallbackURL  string  `json:"callback_url,omitempty"`
	ReturnURL    string  `json:"return_url,omitempty"`
}

// InitializeResponse is the provider's answer to a charge initialization.
type InitializeResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	PaymentURL string `json:"payment_url"`
	Reference  string `json:"charge_id"`
}

// ChargeStatusSuccessful is the provider's terminal success status.
const ChargeStatusSuccessful = "successful"

// VerifyResponse is the provider's answer to a charge verification.
type VerifyResponse struct {
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Reference string  `json:"charge_id"`
}
