package models

// Envelope is a per-category spending cap within one cycle. Category is
// stored lower-cased and matched case-insensitively against entry categories.
// Spent is derived state: the sum of matching EXPENSE entries in the cycle.
type Envelope struct {
	Base
	CycleID   uint    `gorm:"not null;index" json:"cycle_id"`
	Category  string  `gorm:"not null" json:"category_name"`
	Allocated float64 `gorm:"default:0" json:"allocated_amount"`
	Spent     float64 `gorm:"default:0" json:"spent_amount"`
}

// Remaining returns the unspent allocation. Negative when overspent.
func (e *Envelope) Remaining() float64 {
	return e.Allocated - e.Spent
}
