package enums

import "fmt"

// StockStatus tracks where a serialized stock unit sits in its lifecycle.
type StockStatus string

const (
	StockAvailable   StockStatus = "available"
	StockReserved    StockStatus = "reserved"
	StockSold        StockStatus = "sold"
	StockServiceTech StockStatus = "service_tech"
	StockDrawer      StockStatus = "drawer"
)

var validStockStatuses = []StockStatus{
	StockAvailable,
	StockReserved,
	StockSold,
	StockServiceTech,
	StockDrawer,
}

// String implements fmt.Stringer.
func (s StockStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockStatus.
func (s StockStatus) IsValid() bool {
	for _, candidate := range validStockStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockStatus converts raw input into a StockStatus.
func ParseStockStatus(value string) (StockStatus, error) {
	for _, candidate := range validStockStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock status %q", value)
}
