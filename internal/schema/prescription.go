package schema

import "time"

// Prescription is one uploaded prescription image and everything the
// pipeline derived from it. UniqueID is the public reference used in URLs
// and asset names; ID stays internal.
type Prescription struct {
	ID           uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	UniqueID     string       `gorm:"size:36;uniqueIndex;not null" json:"unique_id"`
	ImagePath    string       `gorm:"size:255;not null" json:"image_path"`
	RawText      *string      `gorm:"type:text" json:"raw_text"`
	UrduText     *string      `gorm:"type:text" json:"urdu_text"`
	AudioPath    *string      `gorm:"size:255" json:"audio_path"`
	Status       Status       `gorm:"type:varchar(20);not null;default:'pending';check:chk_prescriptions_status,status IN ('pending','processing','completed','failed')" json:"status"`
	Stage        string       `gorm:"type:varchar(20);not null;default:'uploaded'" json:"stage"`
	ErrorMessage *string      `gorm:"type:text" json:"error_message"`
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time    `json:"-"`
	Medications  []Medication `gorm:"foreignKey:PrescriptionID;constraint:OnDelete:CASCADE" json:"medications"`
}

func (Prescription) TableName() string {
	return "prescriptions"
}
