package entity

import "time"

// TransactionType distinguishes debits from credits in the ledger.
type TransactionType string

const (
	TransactionCharge TransactionType = "charge"
	TransactionCredit TransactionType = "credit"
)

// ChargeSubtype records what a charge paid for.
type ChargeSubtype string

const (
	SubtypeSemanticPredictionJob   ChargeSubtype = "semanticPredictionJob"
	SubtypeRefinementPredictionJob ChargeSubtype = "refinementPredictionJob"
	SubtypeError                   ChargeSubtype = "error"
)

// SubtypeForJob derives the charge subtype from a job type.
func SubtypeForJob(t JobType) ChargeSubtype {
	switch t {
	case JobTypeSemantic:
		return SubtypeSemanticPredictionJob
	case JobTypeRefinement:
		return SubtypeRefinementPredictionJob
	default:
		return SubtypeError
	}
}

// ChargeStatus tracks whether the balance side of a charge was applied.
// unresolved charges exist without a matching balance change and are settled
// out of band.
type ChargeStatus string

const (
	ChargeResolved   ChargeStatus = "resolved"
	ChargeUnresolved ChargeStatus = "unresolved"
	ChargeFlagged    ChargeStatus = "flagged"
)

// Charge is an append-only ledger record.
type Charge struct {
	TransactionID string          `gorm:"column:transaction_id;primaryKey;type:varchar(64)" json:"transactionId"`
	UserID        string          `gorm:"column:user_id;type:varchar(191);index;not null" json:"userId"`
	Amount        float64         `gorm:"column:amount;not null" json:"amount"`
	Description   *string         `gorm:"column:description;type:text" json:"description,omitempty"`
	Type          TransactionType `gorm:"column:type;type:varchar(16);not null" json:"type"`
	Subtype       ChargeSubtype   `gorm:"column:subtype;type:varchar(64)" json:"subtype"`
	Status        ChargeStatus    `gorm:"column:status;type:varchar(16);index;not null" json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// TableName overrides the default table name.
func (Charge) TableName() string {
	return "transactions"
}
