// Package repo persists prescriptions and their medications with gorm.
package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mediscribe/mediscribe_backend/internal/pipeline"
	"github.com/mediscribe/mediscribe_backend/internal/schema"
)

type Prescriptions struct {
	db *gorm.DB
}

func NewPrescriptions(db *gorm.DB) *Prescriptions {
	return &Prescriptions{db: db}
}

// Create inserts a new record. Status and stage default to pending/uploaded.
func (r *Prescriptions) Create(ctx context.Context, p *schema.Prescription) error {
	if p.Status == "" {
		p.Status = schema.StatusPending
	}
	if p.Stage == "" {
		p.Stage = pipeline.StageUploaded.String()
	}
	if err := r.db.WithContext(ctx).Omit("Medications").Create(p).Error; err != nil {
		return fmt.Errorf("create prescription: %w", err)
	}
	if p.Medications == nil {
		p.Medications = []schema.Medication{}
	}
	return nil
}

// List returns every record, newest first, with medications loaded.
func (r *Prescriptions) List(ctx context.Context) ([]schema.Prescription, error) {
	var out []schema.Prescription
	err := r.db.WithContext(ctx).
		Preload("Medications", orderMedications).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	for i := range out {
		if out[i].Medications == nil {
			out[i].Medications = []schema.Medication{}
		}
	}
	return out, nil
}

func (r *Prescriptions) GetByUniqueID(ctx context.Context, uniqueID string) (*schema.Prescription, error) {
	return r.get(r.db.WithContext(ctx), uniqueID)
}

// DeleteByUniqueID removes the record and its medications and returns what
// was deleted so the caller can clean up assets.
func (r *Prescriptions) DeleteByUniqueID(ctx context.Context, uniqueID string) (*schema.Prescription, error) {
	var deleted *schema.Prescription
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := r.get(tx, uniqueID)
		if err != nil {
			return err
		}
		if err := tx.Where("prescription_id = ?", p.ID).Delete(&schema.Medication{}).Error; err != nil {
			return fmt.Errorf("delete medications: %w", err)
		}
		if err := tx.Delete(&schema.Prescription{}, p.ID).Error; err != nil {
			return fmt.Errorf("delete prescription: %w", err)
		}
		deleted = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// ApplyCheckpoint commits one pipeline checkpoint in its own transaction.
// Only the columns owned by the checkpoint's stage are written.
func (r *Prescriptions) ApplyCheckpoint(ctx context.Context, uniqueID string, cp pipeline.Checkpoint) error {
	if !cp.Status.Valid() {
		return fmt.Errorf("apply checkpoint: invalid status %q", cp.Status)
	}
	if !cp.Stage.Valid() {
		return fmt.Errorf("apply checkpoint: invalid stage %q", cp.Stage)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row schema.Prescription
		if err := tx.Select("id").Where("unique_id = ?", uniqueID).Take(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("apply checkpoint: %w", err)
		}
		id := row.ID

		updates := map[string]any{
			"status": cp.Status,
			"stage":  cp.Stage.String(),
		}

		if cp.Status == schema.StatusFailed {
			msg := "unknown error"
			if cp.Err != nil {
				msg = cp.Err.Error()
			}
			updates["error_message"] = msg
		} else {
			switch cp.Stage {
			case pipeline.StageOCR:
				updates["raw_text"] = cp.RawText
			case pipeline.StageCorrection:
				if err := replaceMedications(tx, id, cp.Medications); err != nil {
					return err
				}
			case pipeline.StageTranslation:
				updates["urdu_text"] = cp.UrduText
			case pipeline.StageDone:
				updates["audio_path"] = cp.AudioPath
				updates["error_message"] = nil
			}
		}

		if err := tx.Model(&schema.Prescription{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("apply checkpoint %s: %w", cp.Stage, err)
		}
		return nil
	})
}

// Recorder binds ApplyCheckpoint to one record.
func (r *Prescriptions) Recorder(uniqueID string) pipeline.Recorder {
	return pipeline.RecorderFunc(func(ctx context.Context, cp pipeline.Checkpoint) error {
		return r.ApplyCheckpoint(ctx, uniqueID, cp)
	})
}

// Ping checks the database connection.
func (r *Prescriptions) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Prescriptions) get(db *gorm.DB, uniqueID string) (*schema.Prescription, error) {
	var p schema.Prescription
	err := db.Preload("Medications", orderMedications).Where("unique_id = ?", uniqueID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get prescription: %w", err)
	}
	if p.Medications == nil {
		p.Medications = []schema.Medication{}
	}
	return &p, nil
}

func replaceMedications(tx *gorm.DB, prescriptionID uint, meds []schema.Medication) error {
	if err := tx.Where("prescription_id = ?", prescriptionID).Delete(&schema.Medication{}).Error; err != nil {
		return fmt.Errorf("clear medications: %w", err)
	}
	if len(meds) == 0 {
		return nil
	}
	rows := make([]schema.Medication, len(meds))
	for i, m := range meds {
		m.ID = 0
		m.PrescriptionID = prescriptionID
		rows[i] = m
	}
	if err := tx.CreateInBatches(rows, 100).Error; err != nil {
		return fmt.Errorf("insert medications: %w", err)
	}
	return nil
}

func orderMedications(db *gorm.DB) *gorm.DB {
	return db.Order("medications.id ASC")
}
