package enum

// EntryType classifies a ledger entry by the direction it moves the
// customer's running balance.
type EntryType string

const (
	// EntryTypePayment records money received from the customer; it
	// decreases the balance.
	EntryTypePayment EntryType = "payment"
	// EntryTypeCredit records goods given on credit or a manual charge;
	// it increases the balance.
	EntryTypeCredit EntryType = "credit"
)

// IsValid checks if the entry type is valid
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypePayment, EntryTypeCredit:
		return true
	}
	return false
}

// Sign returns the multiplier the entry applies to the running balance.
func (t EntryType) Sign() int64 {
	if t == EntryTypePayment {
		return -1
	}
	return 1
}

// DefaultNote returns the note used when the caller supplies none.
func (t EntryType) DefaultNote() string {
	if t == EntryTypePayment {
		return "Payment Received"
	}
	return "Manual Charge"
}

// String returns the string representation of the entry type
func (t EntryType) String() string {
	return string(t)
}
