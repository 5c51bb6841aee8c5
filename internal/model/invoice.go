package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Invoice is one purchased product line of a gateway transaction. All
// invoices created from the same transaction share TripayReference.
type Invoice struct {
	ID              uint           `json:"id" gorm:"primarykey"`
	ProductID       uint           `json:"product_id" gorm:"not null;index"`
	Product         *Product       `json:"product,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	TripayReference string         `json:"tripay_reference" gorm:"type:varchar(100);not null;index"`
	BuyerEmail      string         `json:"buyer_email" gorm:"type:varchar(255);not null"`
	BuyerPhone      string         `json:"buyer_phone" gorm:"type:varchar(50);not null"`
	RawResponse     datatypes.JSON `json:"raw_response"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// Tables lists every model migrated by the service, parents first
var Tables = []interface{}{
	&Category{},
	&Product{},
	&Invoice{},
}
