package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"annotcore/pkg/domain"
)

// Service owns one annotation session: the upload state behind its undo
// timeline, the applied template, the plate selection, and the mass-edit
// flow. It is an explicit object threaded through callers; there is no
// package-level state. All mutations commit through the history as single
// transactions, and all projections are pure functions of the present
// snapshot, memoized per generation.
type Service struct {
	history  *History
	template *domain.Template
	massEdit MassEdit

	selectedWellIDs []int
	platesByBarcode map[string][]domain.Plate

	drafts    domain.DraftStore
	workflows domain.WorkflowSource

	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	nowFn   func() time.Time

	gen   uint64
	cache projectionCache

	historyLimit int
}

type projectionCache struct {
	gen        uint64
	valid      bool
	rows       []Row
	cellErrors map[domain.RecordKey]map[string]string
	errors     []string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger injects the logger used for operation diagnostics.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics injects the operation metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer injects the operation tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithDraftStore attaches a draft persistence backend.
func WithDraftStore(store domain.DraftStore) Option {
	return func(s *Service) { s.drafts = store }
}

// WithWorkflowSource attaches the workflow-options lookup collaborator.
func WithWorkflowSource(src domain.WorkflowSource) Option {
	return func(s *Service) { s.workflows = src }
}

// WithHistoryLimit bounds the undo stack depth; zero means unbounded.
func WithHistoryLimit(limit int) Option {
	return func(s *Service) { s.historyLimit = limit }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// NewService constructs a session service with an empty upload state.
func NewService(opts ...Option) *Service {
	s := &Service{
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history = NewHistory(make(UploadState), s.historyLimit)
	return s
}

// ErrNoTemplate is returned by operations that need an applied template.
type ErrNoTemplate struct{}

func (ErrNoTemplate) Error() string { return "no annotation template applied" }

// ErrRecordNotFound reports an operation against a key absent from state.
type ErrRecordNotFound struct {
	Key domain.RecordKey
}

func (e ErrRecordNotFound) Error() string {
	return fmt.Sprintf("upload record %s not found", e.Key)
}

// observe wraps one operation with tracing, metrics, and logging.
func (s *Service) observe(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, operation)
	started := s.nowFn()
	err := fn(ctx)
	duration := s.nowFn().Sub(started)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, duration)
	if err != nil {
		s.logger.Errorf("%s: %v", operation, err)
	} else {
		s.logger.Debugf("%s completed in %s", operation, duration)
	}
	return err
}

// commit pushes a new snapshot through the history and invalidates the
// memoized projections.
func (s *Service) commit(next UploadState) {
	s.history.Mutate(next)
	s.gen++
}

// State returns the present snapshot. Callers must treat it as read-only.
func (s *Service) State() UploadState { return s.history.Present() }

// Template returns the applied template, if any.
func (s *Service) Template() (domain.Template, bool) {
	if s.template == nil {
		return domain.Template{}, false
	}
	return s.template.Clone(), true
}

// ApplyTemplate switches the active template. Values for annotations the
// new template does not define are deleted; values for annotations present
// in both survive, and missing ones gain their type defaults. The whole
// switch is one undoable transaction.
func (s *Service) ApplyTemplate(ctx context.Context, template domain.Template) error {
	return s.observe(ctx, "apply_template", func(context.Context) error {
		next := make(UploadState, len(s.State()))
		for key, record := range s.State() {
			cp := record.Clone()
			for name := range cp.Annotations {
				if _, keep := template.Definition(name); !keep {
					delete(cp.Annotations, name)
				}
			}
			next[key] = EnsureAnnotationDefaults(cp, template)
		}
		t := template.Clone()
		s.template = &t
		s.commit(next)
		s.logger.Infof("applied template %s (%d annotations)", template.Name, len(template.Annotations))
		return nil
	})
}

// AddFiles creates file-level records with default annotation values for
// each path not already present, as one transaction.
func (s *Service) AddFiles(ctx context.Context, paths ...string) error {
	return s.observe(ctx, "add_files", func(context.Context) error {
		next := s.State().Clone()
		added := 0
		for _, path := range paths {
			key := domain.FileKey(path)
			if _, exists := next[key]; exists {
				continue
			}
			record := domain.UploadRecord{File: path, Annotations: map[string]any{}}
			if s.template != nil {
				record = EnsureAnnotationDefaults(record, *s.template)
			}
			next[key] = record
			added++
		}
		if added == 0 {
			return nil
		}
		s.commit(next)
		return nil
	})
}

// RemoveFiles deletes the files and all their dimension records as one
// transaction.
func (s *Service) RemoveFiles(ctx context.Context, paths ...string) error {
	return s.observe(ctx, "remove_files", func(context.Context) error {
		next := s.State().Clone()
		removed := 0
		for _, path := range paths {
			removed += next.RemoveFile(path)
		}
		if removed == 0 {
			return nil
		}
		s.commit(next)
		return nil
	})
}

// UpdateRecord applies a mutator to one record as a single transaction.
// The mutator receives a clone; identity fields are restored afterwards so
// an edit can never silently re-key a record.
func (s *Service) UpdateRecord(ctx context.Context, key domain.RecordKey, mutator func(*domain.UploadRecord) error) error {
	return s.observe(ctx, "update_record", func(context.Context) error {
		current, ok := s.State()[key]
		if !ok {
			return ErrRecordNotFound{Key: key}
		}
		edited := current.Clone()
		if err := mutator(&edited); err != nil {
			return err
		}
		edited.File = current.File
		edited.PositionIndex = current.PositionIndex
		edited.Scene = current.Scene
		edited.SubImageName = current.SubImageName
		edited.ChannelID = current.ChannelID

		next := s.State().Clone()
		next[key] = edited
		s.commit(next)
		return nil
	})
}

// SetAnnotation edits one cell: the named annotation value on one record.
func (s *Service) SetAnnotation(ctx context.Context, key domain.RecordKey, name string, value any) error {
	return s.UpdateRecord(ctx, key, func(r *domain.UploadRecord) error {
		if r.Annotations == nil {
			r.Annotations = make(map[string]any)
		}
		r.Annotations[name] = domain.CloneValue(value)
		return nil
	})
}

// SubImageSpec describes the sub-image dimensions to materialize for a
// file. At most one discriminator list should be populated per call,
// matching the mutually exclusive discriminators on records.
type SubImageSpec struct {
	PositionIndexes []int
	Scenes          []int
	SubImageNames   []string
	ChannelIDs      []string
}

// UpdateSubImages creates the dimension records the sub-image editor
// selected: one record per sub-image, one per channel within each
// sub-image, and channel-only records when no sub-image is given. Existing
// records are preserved. One transaction.
func (s *Service) UpdateSubImages(ctx context.Context, file string, spec SubImageSpec) error {
	return s.observe(ctx, "update_sub_images", func(context.Context) error {
		if _, ok := s.State()[domain.FileKey(file)]; !ok {
			return ErrRecordNotFound{Key: domain.FileKey(file)}
		}
		next := s.State().Clone()

		ensure := func(r domain.UploadRecord) {
			if _, exists := next[r.Key()]; exists {
				return
			}
			if r.Annotations == nil {
				r.Annotations = map[string]any{}
			}
			if s.template != nil {
				r = EnsureAnnotationDefaults(r, *s.template)
			}
			next[r.Key()] = r
		}

		subImages := make([]domain.UploadRecord, 0)
		for _, p := range spec.PositionIndexes {
			v := p
			subImages = append(subImages, domain.UploadRecord{File: file, PositionIndex: &v})
		}
		for _, sc := range spec.Scenes {
			v := sc
			subImages = append(subImages, domain.UploadRecord{File: file, Scene: &v})
		}
		for _, name := range spec.SubImageNames {
			v := name
			subImages = append(subImages, domain.UploadRecord{File: file, SubImageName: &v})
		}

		if len(subImages) == 0 {
			for _, ch := range spec.ChannelIDs {
				v := ch
				ensure(domain.UploadRecord{File: file, ChannelID: &v})
			}
		} else {
			for _, sub := range subImages {
				ensure(sub)
				for _, ch := range spec.ChannelIDs {
					withChannel := sub
					v := ch
					withChannel.ChannelID = &v
					ensure(withChannel)
				}
			}
		}
		s.commit(next)
		return nil
	})
}

// SetBarcode sets the plate barcode on one record.
func (s *Service) SetBarcode(ctx context.Context, key domain.RecordKey, barcode string) error {
	return s.UpdateRecord(ctx, key, func(r *domain.UploadRecord) error {
		r.Barcode = barcode
		return nil
	})
}

// SetPlates replaces the barcode-to-plates lookup supplied by the plate
// collaborator.
func (s *Service) SetPlates(platesByBarcode map[string][]domain.Plate) {
	s.platesByBarcode = platesByBarcode
	s.gen++
}

// SetWellSelection replaces the current plate-UI well selection.
func (s *Service) SetWellSelection(wellIDs []int) {
	s.selectedWellIDs = append([]int(nil), wellIDs...)
}

// WellSelection returns the current well selection.
func (s *Service) WellSelection() []int {
	return append([]int(nil), s.selectedWellIDs...)
}

// CanAssociate reports whether associating the current well selection with
// the record would change it. The UI disables the control otherwise.
func (s *Service) CanAssociate(key domain.RecordKey) bool {
	record, ok := s.State()[key]
	return ok && CanAssociateWells(record, s.selectedWellIDs)
}

// CanDisassociate reports whether the current selection intersects the
// record's wells.
func (s *Service) CanDisassociate(key domain.RecordKey) bool {
	record, ok := s.State()[key]
	return ok && CanDisassociateWells(record, s.selectedWellIDs)
}

// AssociateWells merges the current well selection into each target record
// as one transaction.
func (s *Service) AssociateWells(ctx context.Context, keys ...domain.RecordKey) error {
	return s.observe(ctx, "associate_wells", func(context.Context) error {
		if len(s.selectedWellIDs) == 0 {
			return nil
		}
		return s.mutateRecords(keys, func(r domain.UploadRecord) domain.UploadRecord {
			return AssociateWells(r, s.selectedWellIDs)
		})
	})
}

// DisassociateWells removes the current well selection from each target
// record as one transaction.
func (s *Service) DisassociateWells(ctx context.Context, keys ...domain.RecordKey) error {
	return s.observe(ctx, "disassociate_wells", func(context.Context) error {
		if len(s.selectedWellIDs) == 0 {
			return nil
		}
		return s.mutateRecords(keys, func(r domain.UploadRecord) domain.UploadRecord {
			return DisassociateWells(r, s.selectedWellIDs)
		})
	})
}

// AssociateWorkflows merges the workflows into each target record as one
// transaction.
func (s *Service) AssociateWorkflows(ctx context.Context, workflows []string, keys ...domain.RecordKey) error {
	return s.observe(ctx, "associate_workflows", func(context.Context) error {
		if len(workflows) == 0 {
			return nil
		}
		return s.mutateRecords(keys, func(r domain.UploadRecord) domain.UploadRecord {
			return AssociateWorkflows(r, workflows)
		})
	})
}

// DisassociateWorkflows removes the workflows from each target record as
// one transaction.
func (s *Service) DisassociateWorkflows(ctx context.Context, workflows []string, keys ...domain.RecordKey) error {
	return s.observe(ctx, "disassociate_workflows", func(context.Context) error {
		if len(workflows) == 0 {
			return nil
		}
		return s.mutateRecords(keys, func(r domain.UploadRecord) domain.UploadRecord {
			return DisassociateWorkflows(r, workflows)
		})
	})
}

func (s *Service) mutateRecords(keys []domain.RecordKey, apply func(domain.UploadRecord) domain.UploadRecord) error {
	next := s.State().Clone()
	for _, key := range keys {
		record, ok := next[key]
		if !ok {
			return ErrRecordNotFound{Key: key}
		}
		next[key] = apply(record)
	}
	s.commit(next)
	return nil
}

// MutualFiles returns the files whose wells cover the given selection.
func (s *Service) MutualFiles(selectedWellIDs []int) []string {
	return MutualFilesForWells(s.State(), selectedWellIDs)
}

// MutualFilesForWorkflows returns the files whose workflows cover the
// given selection.
func (s *Service) MutualFilesForWorkflows(workflows []string) []string {
	return MutualFilesForWorkflows(s.State(), workflows)
}

// WorkflowOptions resolves workflow display metadata from the collaborator.
func (s *Service) WorkflowOptions() ([]domain.WorkflowOption, error) {
	if s.workflows == nil {
		return nil, nil
	}
	return s.workflows.WorkflowOptions()
}

// StartMassEdit opens a mass-edit session over the selected rows.
func (s *Service) StartMassEdit(rowKeys ...domain.RecordKey) error {
	if s.template == nil {
		return ErrNoTemplate{}
	}
	return s.massEdit.Start(rowKeys, *s.template)
}

// SetMassEditValue edits one annotation on the synthetic mass-edit row.
func (s *Service) SetMassEditValue(name string, value any) error {
	return s.massEdit.SetValue(name, value)
}

// MassEditRow returns the synthetic row and the selected-row count.
func (s *Service) MassEditRow() (domain.UploadRecord, int, bool) {
	record, ok := s.massEdit.Synthetic()
	return record, s.massEdit.SelectedCount(), ok
}

// ApplyMassEdit merges the synthetic row into every selected record as a
// single undoable transaction and ends the session.
func (s *Service) ApplyMassEdit(ctx context.Context) error {
	return s.observe(ctx, "apply_mass_edit", func(context.Context) error {
		next, err := s.massEdit.Apply(s.State())
		if err != nil {
			return err
		}
		s.commit(next)
		return nil
	})
}

// CancelMassEdit discards the session without touching the upload state.
func (s *Service) CancelMassEdit() {
	s.massEdit.Cancel()
}

// Undo steps the upload state back one transaction.
func (s *Service) Undo() bool {
	if s.history.Undo() {
		s.gen++
		return true
	}
	return false
}

// Redo steps the upload state forward one transaction.
func (s *Service) Redo() bool {
	if s.history.Redo() {
		s.gen++
		return true
	}
	return false
}

// JumpTo moves |offset| steps through the timeline, clamped.
func (s *Service) JumpTo(offset int) {
	s.history.JumpTo(offset)
	s.gen++
}

// CanUndo reports whether an undo step is available.
func (s *Service) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether a redo step is available.
func (s *Service) CanRedo() bool { return s.history.CanRedo() }

// HistoryIndex is the present position in the timeline.
func (s *Service) HistoryIndex() int { return s.history.Index() }

// Rows returns the memoized hierarchical projection of the present state.
func (s *Service) Rows() []Row {
	s.refreshProjections()
	return s.cache.rows
}

// AnnotationErrors returns the memoized per-cell error map.
func (s *Service) AnnotationErrors() map[domain.RecordKey]map[string]string {
	s.refreshProjections()
	return s.cache.cellErrors
}

// ValidationErrors returns the memoized submission-blocking error list.
func (s *Service) ValidationErrors() []string {
	s.refreshProjections()
	return s.cache.errors
}

// CanSubmit reports whether the session has no blocking validation errors.
func (s *Service) CanSubmit() bool {
	return s.template != nil && len(s.ValidationErrors()) == 0
}

// refreshProjections recomputes rows and validation output when the state
// generation moved. Projections are pure, so recomputation is driven only
// by mutations, never by reads.
func (s *Service) refreshProjections() {
	if s.cache.valid && s.cache.gen == s.gen {
		return
	}
	state := s.State()
	rows := BuildRows(state)
	var cellErrors map[domain.RecordKey]map[string]string
	var errors []string
	if s.template != nil {
		cellErrors = AnnotationErrors(state, *s.template)
		errors = ValidationErrors(rows, FileAnnotationHasValue(state), cellErrors, s.platesByBarcode, s.template)
	}
	s.cache = projectionCache{
		gen:        s.gen,
		valid:      true,
		rows:       rows,
		cellErrors: cellErrors,
		errors:     errors,
	}
}

// FileNames returns the sorted unique basenames in the upload.
func (s *Service) FileNames() []string {
	return UploadFileNames(s.State())
}

// FileCount returns the number of distinct files in the upload.
func (s *Service) FileCount() int {
	return len(s.State().Files())
}

// UploadRequests builds the per-file submission payloads.
func (s *Service) UploadRequests() ([]UploadRequest, error) {
	if s.template == nil {
		return nil, ErrNoTemplate{}
	}
	return UploadRequests(s.State(), *s.template), nil
}

// SaveDraft persists the whole session under a generated id and returns it.
func (s *Service) SaveDraft(ctx context.Context, name string) (string, error) {
	id := uuid.NewString()
	err := s.observe(ctx, "save_draft", func(ctx context.Context) error {
		if s.drafts == nil {
			return fmt.Errorf("no draft store configured")
		}
		draft := domain.Draft{
			ID:              id,
			Name:            name,
			SavedAt:         s.nowFn(),
			Records:         s.State().Records(),
			SelectedWellIDs: s.WellSelection(),
		}
		if s.template != nil {
			t := s.template.Clone()
			draft.Template = &t
		}
		return s.drafts.Put(ctx, draft)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// LoadDraft restores a session: the upload state replaces the timeline
// root (history does not survive a restore), and the saved template and
// selection are reapplied.
func (s *Service) LoadDraft(ctx context.Context, id string) error {
	return s.observe(ctx, "load_draft", func(ctx context.Context) error {
		if s.drafts == nil {
			return fmt.Errorf("no draft store configured")
		}
		draft, err := s.drafts.Get(ctx, id)
		if err != nil {
			return err
		}
		s.history.Reset(NewUploadState(draft.Records...))
		s.template = draft.Template
		s.selectedWellIDs = draft.SelectedWellIDs
		s.massEdit.Cancel()
		s.gen++
		return nil
	})
}
