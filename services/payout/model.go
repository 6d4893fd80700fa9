package payout

import (
	"time"

	"gorm.io/datatypes"
)

// Status is the payout settlement state.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusPaid     Status = "Paid"
	StatusFailed   Status = "Failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusPaid, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further automatic processing applies. Leaving
// a terminal state requires the explicit Reverse operation.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusFailed
}

// legalTransitions enumerates the settlement edges:
// Pending → {Approved, Failed}, Approved → {Paid, Failed}.
var legalTransitions = map[Status]map[Status]bool{
	StatusPending:  {StatusApproved: true, StatusFailed: true},
	StatusApproved: {StatusPaid: true, StatusFailed: true},
}

func CanTransition(from, to Status) bool {
	return legalTransitions[from][to]
}

// PayoutLedger is one monthly settlement row for a publisher. Rows are
// created Pending by the monthly batch and only ever transitioned, never
// deleted.
type PayoutLedger struct {
	ID              string     `gorm:"column:id;primaryKey"`
	UserID          string     `gorm:"column:user_id;index;not null"`
	Month           int        `gorm:"column:month;not null"`
	Year            int        `gorm:"column:year;not null"`
	TotalRevenue    float64    `gorm:"column:total_revenue;not null;default:0"`
	Reconciliation  float64    `gorm:"column:reconciliation;not null;default:0"`
	TotalPayout     float64    `gorm:"column:total_payout;not null;default:0"`
	Shortfall       float64    `gorm:"column:shortfall;not null;default:0"`
	Status          string     `gorm:"column:status;default:'Pending'"`
	PaymentMethodID string     `gorm:"column:payment_method_id"`
	AdminNotes      string     `gorm:"column:admin_notes"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	ProcessedAt     *time.Time `gorm:"column:processed_at"`
}

func (PayoutLedger) TableName() string { return "payout_ledgers" }

// NetPayout computes the disbursable amount. The payout is clamped at zero;
// when reconciliation exceeds revenue the raw deficit comes back as
// shortfall so it can be carried instead of vanishing.
func NetPayout(revenue, reconciliation float64) (payout, shortfall float64) {
	payout = revenue - reconciliation
	if payout < 0 {
		return 0, -payout
	}
	return payout, 0
}

// ApplyTotals recomputes the derived payout fields from the stored revenue
// and reconciliation figures.
func (l *PayoutLedger) ApplyTotals() {
	l.TotalPayout, l.Shortfall = NetPayout(l.TotalRevenue, l.Reconciliation)
}

// Audit actions recorded for ledger activity.
const (
	ActionTransition = "payout.transition"
	ActionReverse    = "payout.reversed"
)

// PayoutActivity is the audit record emitted with every state change. A
// transition is not considered committed until its activity row is written,
// so both go through the same transaction.
type PayoutActivity struct {
	ID         string         `gorm:"column:id;primaryKey"`
	LedgerID   string         `gorm:"column:ledger_id;index;not null"`
	Action     string         `gorm:"column:action;not null"`
	FromStatus string         `gorm:"column:from_status;not null"`
	ToStatus   string         `gorm:"column:to_status;not null"`
	ActorID    string         `gorm:"column:actor_id;not null"`
	Notes      string         `gorm:"column:notes"`
	Metadata   datatypes.JSON `gorm:"column:metadata"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (PayoutActivity) TableName() string { return "payout_activities" }
