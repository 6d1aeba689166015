package enums

import "fmt"

// ReceivableStatus classifies how much of a sale's total has been collected.
type ReceivableStatus string

const (
	ReceivablePending ReceivableStatus = "pending"
	ReceivablePartial ReceivableStatus = "partial"
	ReceivablePaid    ReceivableStatus = "paid"
)

var validReceivableStatuses = []ReceivableStatus{
	ReceivablePending,
	ReceivablePartial,
	ReceivablePaid,
}

// String implements fmt.Stringer.
func (r ReceivableStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReceivableStatus.
func (r ReceivableStatus) IsValid() bool {
	for _, candidate := range validReceivableStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReceivableStatus converts raw input into a ReceivableStatus.
func ParseReceivableStatus(value string) (ReceivableStatus, error) {
	for _, candidate := range validReceivableStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid receivable status %q", value)
}
