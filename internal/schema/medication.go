package schema

// Confidence labels attached to extracted medications.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Medication is one line of a prescription after correction. Rows are
// written once, in bulk, and removed with their prescription.
type Medication struct {
	ID             uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	PrescriptionID uint   `gorm:"not null;index" json:"-"`
	Name           string `gorm:"size:200;not null" json:"name"`
	Dose           string `gorm:"size:100" json:"dose"`
	Schedule       string `gorm:"size:200" json:"schedule"`
	Confidence     string `gorm:"size:20" json:"confidence"` // high, medium, low
}

func (Medication) TableName() string {
	return "medications"
}
