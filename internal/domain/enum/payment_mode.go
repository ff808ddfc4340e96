package enum

// PaymentMode is how a checkout is settled.
type PaymentMode string

const (
	// PaymentModeCash settles immediately; no ledger entry is written.
	PaymentModeCash PaymentMode = "cash"
	// PaymentModeCredit books the total onto the customer's ledger.
	PaymentModeCredit PaymentMode = "credit"
)

// IsValid checks if the payment mode is valid
func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentModeCash, PaymentModeCredit:
		return true
	}
	return false
}

// String returns the string representation of the payment mode
func (m PaymentMode) String() string {
	return string(m)
}
