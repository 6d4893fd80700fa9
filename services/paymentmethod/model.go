package paymentmethod

import (
	"time"

	"gorm.io/datatypes"
)

type Type string

const (
	TypeCrypto Type = "crypto"
	TypeWire   Type = "wire"
)

func (t Type) Valid() bool {
	return t == TypeCrypto || t == TypeWire
}

// PaymentMethod is one payout destination. At most one row per user may be
// the default at any time.
type PaymentMethod struct {
	ID        string         `gorm:"column:id;primaryKey"`
	UserID    string         `gorm:"column:user_id;index;not null"`
	Type      string         `gorm:"column:type;not null"`
	Name      string         `gorm:"column:name;not null"`
	Details   datatypes.JSON `gorm:"column:details"`
	IsDefault bool           `gorm:"column:is_default;not null;default:false"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (PaymentMethod) TableName() string { return "payment_methods" }
