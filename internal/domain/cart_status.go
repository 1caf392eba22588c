package domain

type CartStatus string

const (
	CartStatusInitial      CartStatus = "initial"
	CartStatusIdle         CartStatus = "idle"
	CartStatusEnteringItem CartStatus = "entering_item"
	CartStatusPaying       CartStatus = "paying"
	CartStatusCompleted    CartStatus = "completed"
	CartStatusCancelled    CartStatus = "cancelled"
)

func (s CartStatus) IsTerminal() bool {
	return s == CartStatusCompleted || s == CartStatusCancelled
}

// String representation (for logging)
func (s CartStatus) String() string {
	return string(s)
}
