package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"annotcore/internal/infra/persistence/memory"
	"annotcore/pkg/domain"
)

type capturedOp struct {
	name    string
	success bool
}

// captureMetrics records every observed operation for assertions.
type captureMetrics struct {
	mu  sync.Mutex
	ops []capturedOp
}

func (c *captureMetrics) Observe(_ context.Context, operation string, success bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, capturedOp{name: operation, success: success})
}

func (c *captureMetrics) last() (capturedOp, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.ops) == 0 {
		return capturedOp{}, false
	}
	return c.ops[len(c.ops)-1], true
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	svc := NewService(opts...)
	if err := svc.ApplyTemplate(context.Background(), fullTemplate()); err != nil {
		t.Fatalf("ApplyTemplate: %v", err)
	}
	return svc
}

func TestServiceAddFilesAppliesDefaults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if err := svc.AddFiles(ctx, "/d/a.czi", "/d/b.czi", "/d/a.czi"); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	state := svc.State()
	if len(state) != 2 {
		t.Fatalf("state has %d records", len(state))
	}
	record := state[domain.FileKey("/d/a.czi")]
	if record.Annotations["Fixed"].([]any)[0] != false {
		t.Fatalf("boolean default missing: %v", record.Annotations)
	}
	if len(record.Annotations["Condition"].([]any)) != 0 {
		t.Fatalf("dropdown default wrong: %v", record.Annotations["Condition"])
	}
}

func TestServiceUndoRedoRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if err := svc.AddFiles(ctx, "/d/a.czi"); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	key := domain.FileKey("/d/a.czi")
	if err := svc.SetAnnotation(ctx, key, "Notes", []any{"hello"}); err != nil {
		t.Fatalf("SetAnnotation: %v", err)
	}

	if !svc.Undo() {
		t.Fatal("undo failed")
	}
	if got := svc.State()[key].Annotations["Notes"]; len(got.([]any)) != 0 {
		t.Fatalf("undo left value %v", got)
	}
	if !svc.Redo() {
		t.Fatal("redo failed")
	}
	if got := svc.State()[key].Annotations["Notes"]; got.([]any)[0] != "hello" {
		t.Fatalf("redo restored %v", got)
	}
}

func TestServiceTemplateSwitchDropsStaleValues(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if err := svc.AddFiles(ctx, "/d/a.czi"); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	key := domain.FileKey("/d/a.czi")
	if err := svc.SetAnnotation(ctx, key, "Notes", []any{"survivor"}); err != nil {
		t.Fatalf("SetAnnotation: %v", err)
	}
	if err := svc.SetAnnotation(ctx, key, "Condition", []any{"A"}); err != nil {
		t.Fatalf("SetAnnotation: %v", err)
	}

	next := domain.Template{
		ID:   20,
		Name: "Slim",
		Annotations: []domain.AnnotationDefinition{
			{ID: 5, Name: "Notes", Type: domain.TypeText},
			{ID: 9, Name: "Operator", Type: domain.TypeText, Required: true},
		},
	}
	if err := svc.ApplyTemplate(ctx, next); err != nil {
		t.Fatalf("ApplyTemplate: %v", err)
	}

	record := svc.State()[key]
	if record.Annotations["Notes"].([]any)[0] != "survivor" {
		t.Fatal("shared annotation did not survive the switch")
	}
	if _, present := record.Annotations["Condition"]; present {
		t.Fatal("out-of-template value survived the switch")
	}
	if len(record.Annotations["Operator"].([]any)) != 0 {
		t.Fatalf("new annotation default wrong: %v", record.Annotations["Operator"])
	}

	// The switch is one undoable transaction.
	if !svc.Undo() {
		t.Fatal("undo failed")
	}
	if _, present := svc.State()[key].Annotations["Condition"]; !present {
		t.Fatal("undo did not restore the pre-switch state")
	}
}

func TestServiceUpdateRecordPreservesIdentity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if err := svc.AddFiles(ctx, "/d/a.czi"); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	key := domain.FileKey("/d/a.czi")
	err := svc.UpdateRecord(ctx, key, func(r *domain.UploadRecord) error {
		r.File = "/d/other.czi"
		r.Scene = intPtr(3)
		r.Barcode = "BC-1"
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	record, ok := svc.State()[key]
	if !ok {
		t.Fatal("record was re-keyed by an edit")
	}
	if record.Barcode != "BC-1" {
		t.Fatal("mutator edit was lost")
	}
	if record.Scene != nil {
		t.Fatal("identity field change leaked through")
	}

	var notFound ErrRecordNotFound
	err = svc.UpdateRecord(ctx, domain.FileKey("/missing"), func(*domain.UploadRecord) error { return nil })
	if !errors.As(err, &notFound) {
		t.Fatalf("missing key gave %v", err)
	}
}

func TestServiceUpdateSubImages(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if err := svc.AddFiles(ctx, "/d/a.czi"); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	spec := SubImageSpec{Scenes: []int{1, 2}, ChannelIDs: []string{"DAPI"}}
	if err := svc.UpdateSubImages(ctx, "/d/a.czi", spec); err != nil {
		t.Fatalf("UpdateSubImages: %v", err)
	}

	// file + 2 scenes + 2 scene/channel records
	if len(svc.State()) != 5 {
		t.Fatalf("state has %d records", len(svc.State()))
	}
	sceneKey := domain.RecordKey{File: "/d/a.czi", Scene: domain.SomeInt(1)}
	if _, ok := svc.State()[sceneKey]; !ok {
		t.Fatal("scene record missing")
	}
	channelKey := sceneKey
	channelKey.ChannelID = "DAPI"
	record, ok := svc.State()[channelKey]
	if !ok {
		t.Fatal("scene channel record missing")
	}
	if record.Annotations["Fixed"].([]any)[0] != false {
		t.Fatal("new dimension record missing defaults")
	}

	rows := svc.Rows()
	if len(rows) != 1 || len(rows[0].SubRows) != 2 {
		t.Fatalf("row projection wrong: %d top, %d children", len(rows), len(rows[0].SubRows))
	}

	if err := svc.UpdateSubImages(ctx, "/missing.czi", spec); err == nil {
		t.Fatal("expected error for unknown file")
	}
}

func TestServiceWellAssociationFlow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if err := svc.AddFiles(ctx, "/d/a.czi"); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	key := domain.FileKey("/d/a.czi")

	svc.SetWellSelection([]int{4, 2})
	if !svc.CanAssociate(key) {
		t.Fatal("fresh selection should be associable")
	}
	if err := svc.AssociateWells(ctx, key); err != nil {
		t.Fatalf("AssociateWells: %v", err)
	}
	record := svc.State()[key]
	if len(record.WellIDs) != 2 || record.WellIDs[0] != 2 || record.WellIDs[1] != 4 {
		t.Fatalf("wells = %v", record.WellIDs)
	}
	if svc.CanAssociate(key) {
		t.Fatal("selection already associated")
	}
	if !svc.CanDisassociate(key) {
		t.Fatal("selection should be disassociable")
	}

	if got := svc.MutualFiles([]int{2}); len(got) != 1 || got[0] != "/d/a.czi" {
		t.Fatalf("mutual files = %v", got)
	}

	if err := svc.DisassociateWells(ctx, key); err != nil {
		t.Fatalf("DisassociateWells: %v", err)
	}
	if len(svc.State()[key].WellIDs) != 0 {
		t.Fatalf("wells after disassociate = %v", svc.State()[key].WellIDs)
	}

	// Association and disassociation each count as one undo step.
	if !svc.Undo() {
		t.Fatal("undo failed")
	}
	if len(svc.State()[key].WellIDs) != 2 {
		t.Fatal("undo did not restore the association")
	}
}

func TestServiceMassEditTransaction(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if err := svc.AddFiles(ctx, "/d/a.czi", "/d/b.czi"); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	keys := []domain.RecordKey{domain.FileKey("/d/a.czi"), domain.FileKey("/d/b.czi")}

	if err := svc.StartMassEdit(keys...); err != nil {
		t.Fatalf("StartMassEdit: %v", err)
	}
	if _, count, ok := svc.MassEditRow(); !ok || count != 2 {
		t.Fatalf("MassEditRow count = %d, ok = %v", count, ok)
	}
	if err := svc.SetMassEditValue("Condition", []any{"B"}); err != nil {
		t.Fatalf("SetMassEditValue: %v", err)
	}
	if err := svc.ApplyMassEdit(ctx); err != nil {
		t.Fatalf("ApplyMassEdit: %v", err)
	}

	for _, key := range keys {
		if got := svc.State()[key].Annotations["Condition"].([]any)[0]; got != "B" {
			t.Fatalf("%v Condition = %v", key, got)
		}
	}

	// Both rows revert with a single undo.
	if !svc.Undo() {
		t.Fatal("undo failed")
	}
	for _, key := range keys {
		if got := svc.State()[key].Annotations["Condition"].([]any); len(got) != 0 {
			t.Fatalf("%v Condition after undo = %v", key, got)
		}
	}
}

func TestServiceValidationAndSubmission(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if err := svc.AddFiles(ctx, "/d/a.czi"); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	key := domain.FileKey("/d/a.czi")

	if svc.CanSubmit() {
		t.Fatal("missing required annotation should block submission")
	}
	if err := svc.SetAnnotation(ctx, key, "Condition", []any{"A"}); err != nil {
		t.Fatalf("SetAnnotation: %v", err)
	}
	if !svc.CanSubmit() {
		t.Fatalf("expected submittable, errors: %v", svc.ValidationErrors())
	}

	requests, err := svc.UploadRequests()
	if err != nil {
		t.Fatalf("UploadRequests: %v", err)
	}
	if len(requests) != 1 || requests[0].File.OriginalPath != "/d/a.czi" {
		t.Fatalf("requests = %+v", requests)
	}

	// A bad cell surfaces in both projections.
	if err := svc.SetAnnotation(ctx, key, "Condition", []any{"Z"}); err != nil {
		t.Fatalf("SetAnnotation: %v", err)
	}
	cellErrors := svc.AnnotationErrors()
	if cellErrors[key]["Condition"] == "" {
		t.Fatalf("cell errors = %v", cellErrors)
	}
	errs := svc.ValidationErrors()
	if len(errs) == 0 || errs[len(errs)-1] != CellErrorsMessage {
		t.Fatalf("validation errors = %v", errs)
	}
}

func TestServiceDraftRoundTrip(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, WithDraftStore(store))
	ctx := context.Background()
	if err := svc.AddFiles(ctx, "/d/a.czi"); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	key := domain.FileKey("/d/a.czi")
	if err := svc.SetAnnotation(ctx, key, "Condition", []any{"A"}); err != nil {
		t.Fatalf("SetAnnotation: %v", err)
	}
	svc.SetWellSelection([]int{1, 2})

	id, err := svc.SaveDraft(ctx, "batch one")
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if id == "" {
		t.Fatal("empty draft id")
	}

	restored := NewService(WithDraftStore(store))
	if err := restored.LoadDraft(ctx, id); err != nil {
		t.Fatalf("LoadDraft: %v", err)
	}
	if got := restored.State()[key].Annotations["Condition"].([]any)[0]; got != "A" {
		t.Fatalf("restored annotation = %v", got)
	}
	if template, ok := restored.Template(); !ok || template.ID != fullTemplate().ID {
		t.Fatalf("restored template = %+v, %v", template, ok)
	}
	if wells := restored.WellSelection(); len(wells) != 2 {
		t.Fatalf("restored selection = %v", wells)
	}
	if restored.CanUndo() {
		t.Fatal("history must not survive a draft restore")
	}

	var notFound domain.ErrDraftNotFound
	if err := restored.LoadDraft(ctx, "missing"); !errors.As(err, &notFound) {
		t.Fatalf("missing draft gave %v", err)
	}
}

func TestServiceObservesOperations(t *testing.T) {
	metrics := &captureMetrics{}
	svc := NewService(WithMetrics(metrics))
	ctx := context.Background()

	if err := svc.AddFiles(ctx, "/d/a.czi"); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	op, ok := metrics.last()
	if !ok || op.name != "add_files" || !op.success {
		t.Fatalf("last op = %+v, %v", op, ok)
	}

	_ = svc.UpdateRecord(ctx, domain.FileKey("/missing"), func(*domain.UploadRecord) error { return nil })
	op, _ = metrics.last()
	if op.name != "update_record" || op.success {
		t.Fatalf("failed op recorded as %+v", op)
	}
}

func TestServiceHistoryLimit(t *testing.T) {
	svc := newTestService(t, WithHistoryLimit(2))
	ctx := context.Background()
	for _, f := range []string{"/a", "/b", "/c", "/d"} {
		if err := svc.AddFiles(ctx, f); err != nil {
			t.Fatalf("AddFiles: %v", err)
		}
	}
	steps := 0
	for svc.Undo() {
		steps++
	}
	if steps != 2 {
		t.Fatalf("undo depth = %d, want 2", steps)
	}
}
