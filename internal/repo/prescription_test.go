package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mediscribe/mediscribe_backend/internal/pipeline"
	"github.com/mediscribe/mediscribe_backend/internal/schema"
	"github.com/mediscribe/mediscribe_backend/pkg/database"
)

func newTestRepo(t *testing.T) *Prescriptions {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewPrescriptions(db)
}

func seed(t *testing.T, r *Prescriptions, uid string) *schema.Prescription {
	t.Helper()
	p := &schema.Prescription{UniqueID: uid, ImagePath: uid + "_rx.png"}
	if err := r.Create(context.Background(), p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return p
}

func TestCreateAndGet(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	p := seed(t, r, "u-1")

	if p.ID == 0 {
		t.Fatal("Create() did not assign an id")
	}

	got, err := r.GetByUniqueID(ctx, "u-1")
	if err != nil {
		t.Fatalf("GetByUniqueID() error = %v", err)
	}
	if got.Status != schema.StatusPending || got.Stage != "uploaded" || got.ImagePath != "u-1_rx.png" {
		t.Errorf("record = %+v", got)
	}
	if got.RawText != nil || got.UrduText != nil || got.AudioPath != nil || got.ErrorMessage != nil {
		t.Errorf("optional fields should be null: %+v", got)
	}
	if got.Medications == nil || len(got.Medications) != 0 {
		t.Errorf("Medications = %#v, want empty slice", got.Medications)
	}

	if _, err := r.GetByUniqueID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByUniqueID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestCreate_DuplicateUniqueID(t *testing.T) {
	r := newTestRepo(t)
	seed(t, r, "dup")
	err := r.Create(context.Background(), &schema.Prescription{UniqueID: "dup", ImagePath: "x.png"})
	if err == nil {
		t.Fatal("expected unique constraint violation")
	}
}

func TestApplyCheckpoint_FullRun(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seed(t, r, "u-1")
	rec := r.Recorder("u-1")

	steps := []pipeline.Checkpoint{
		{Stage: pipeline.StageOCR, Status: schema.StatusProcessing, RawText: "Paracetamol 500mg twice daily"},
		{Stage: pipeline.StageCorrection, Status: schema.StatusProcessing, Medications: []schema.Medication{
			{Name: "Paracetamol", Dose: "500mg", Schedule: "twice daily", Confidence: schema.ConfidenceHigh},
		}},
		{Stage: pipeline.StageTranslation, Status: schema.StatusProcessing, UrduText: "پیراسیٹامول"},
		{Stage: pipeline.StageDone, Status: schema.StatusCompleted, AudioPath: "u-1.mp3"},
	}
	for _, cp := range steps {
		if err := rec.Record(ctx, cp); err != nil {
			t.Fatalf("Record(%s) error = %v", cp.Stage, err)
		}
	}

	got, err := r.GetByUniqueID(ctx, "u-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != schema.StatusCompleted || got.Stage != "done" {
		t.Errorf("status/stage = %s/%s", got.Status, got.Stage)
	}
	if got.RawText == nil || *got.RawText != "Paracetamol 500mg twice daily" {
		t.Errorf("raw_text = %v", got.RawText)
	}
	if got.UrduText == nil || *got.UrduText != "پیراسیٹامول" {
		t.Errorf("urdu_text = %v", got.UrduText)
	}
	if got.AudioPath == nil || *got.AudioPath != "u-1.mp3" {
		t.Errorf("audio_path = %v", got.AudioPath)
	}
	if got.ErrorMessage != nil {
		t.Errorf("error_message = %q, want null", *got.ErrorMessage)
	}
	if len(got.Medications) != 1 || got.Medications[0].Name != "Paracetamol" || got.Medications[0].Confidence != "high" {
		t.Errorf("medications = %+v", got.Medications)
	}
}

func TestApplyCheckpoint_FailureKeepsEarlierFields(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seed(t, r, "u-1")

	if err := r.ApplyCheckpoint(ctx, "u-1", pipeline.Checkpoint{
		Stage: pipeline.StageOCR, Status: schema.StatusProcessing, RawText: "text",
	}); err != nil {
		t.Fatal(err)
	}
	stageErr := &pipeline.StageError{Stage: pipeline.StageCorrection, Err: errors.New("boom")}
	if err := r.ApplyCheckpoint(ctx, "u-1", pipeline.Checkpoint{
		Stage: pipeline.StageCorrection, Status: schema.StatusFailed, Err: stageErr,
	}); err != nil {
		t.Fatal(err)
	}

	got, err := r.GetByUniqueID(ctx, "u-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != schema.StatusFailed || got.Stage != "correction" {
		t.Errorf("status/stage = %s/%s", got.Status, got.Stage)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != stageErr.Error() {
		t.Errorf("error_message = %v", got.ErrorMessage)
	}
	if got.RawText == nil || *got.RawText != "text" {
		t.Errorf("raw_text lost: %v", got.RawText)
	}
	if len(got.Medications) != 0 {
		t.Errorf("medications = %+v, want none", got.Medications)
	}
}

func TestApplyCheckpoint_Errors(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	err := r.ApplyCheckpoint(ctx, "missing", pipeline.Checkpoint{Stage: pipeline.StageOCR, Status: schema.StatusProcessing})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown record error = %v, want ErrNotFound", err)
	}

	seed(t, r, "u-1")
	if err := r.ApplyCheckpoint(ctx, "u-1", pipeline.Checkpoint{Stage: pipeline.StageOCR, Status: "archived"}); err == nil {
		t.Error("expected invalid status to be rejected")
	}
}

func TestList_NewestFirst(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	empty, err := r.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Fatalf("List() on empty db = %d records", len(empty))
	}

	for _, uid := range []string{"a", "b", "c"} {
		seed(t, r, uid)
	}
	if err := r.ApplyCheckpoint(ctx, "b", pipeline.Checkpoint{
		Stage: pipeline.StageCorrection, Status: schema.StatusProcessing,
		Medications: []schema.Medication{{Name: "Ibuprofen"}, {Name: "Aspirin"}},
	}); err != nil {
		t.Fatal(err)
	}

	list, err := r.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List() returned %d records", len(list))
	}
	if list[0].UniqueID != "c" || list[1].UniqueID != "b" || list[2].UniqueID != "a" {
		t.Errorf("order = %s,%s,%s", list[0].UniqueID, list[1].UniqueID, list[2].UniqueID)
	}
	if len(list[1].Medications) != 2 || list[1].Medications[0].Name != "Ibuprofen" {
		t.Errorf("medications of b = %+v", list[1].Medications)
	}
	if list[0].Medications == nil {
		t.Error("records without medications should carry an empty slice")
	}
}

func TestDeleteByUniqueID(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seed(t, r, "u-1")
	seed(t, r, "u-2")
	if err := r.ApplyCheckpoint(ctx, "u-1", pipeline.Checkpoint{
		Stage: pipeline.StageCorrection, Status: schema.StatusProcessing,
		Medications: []schema.Medication{{Name: "Ibuprofen"}},
	}); err != nil {
		t.Fatal(err)
	}

	deleted, err := r.DeleteByUniqueID(ctx, "u-1")
	if err != nil {
		t.Fatalf("DeleteByUniqueID() error = %v", err)
	}
	if deleted.ImagePath != "u-1_rx.png" || len(deleted.Medications) != 1 {
		t.Errorf("deleted = %+v", deleted)
	}

	if _, err := r.GetByUniqueID(ctx, "u-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("record still present: %v", err)
	}
	var orphans int64
	r.db.Model(&schema.Medication{}).Where("prescription_id = ?", deleted.ID).Count(&orphans)
	if orphans != 0 {
		t.Errorf("%d medications left behind", orphans)
	}

	if _, err := r.DeleteByUniqueID(ctx, "u-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
	list, _ := r.List(ctx)
	if len(list) != 1 || list[0].UniqueID != "u-2" {
		t.Errorf("remaining = %+v", list)
	}
}
