package enums

import "fmt"

// PartItemStatus tracks the custody state of a serialized part item.
type PartItemStatus string

const (
	PartItemStatusInStock   PartItemStatus = "in_stock"
	PartItemStatusReserved  PartItemStatus = "reserved"
	PartItemStatusIssued    PartItemStatus = "issued"
	PartItemStatusInstalled PartItemStatus = "installed"
	PartItemStatusScrapped  PartItemStatus = "scrapped"
)

var validPartItemStatuses = []PartItemStatus{
	PartItemStatusInStock,
	PartItemStatusReserved,
	PartItemStatusIssued,
	PartItemStatusInstalled,
	PartItemStatusScrapped,
}

// String implements fmt.Stringer.
func (p PartItemStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PartItemStatus.
func (p PartItemStatus) IsValid() bool {
	for _, candidate := range validPartItemStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePartItemStatus converts raw input into a PartItemStatus.
func ParsePartItemStatus(value string) (PartItemStatus, error) {
	for _, candidate := range validPartItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid part item status %q", value)
}
