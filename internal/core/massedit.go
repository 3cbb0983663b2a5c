package core

import (
	"errors"

	"annotcore/pkg/domain"
)

// ErrNoRowsSelected is returned when a mass edit is started with an empty
// selection.
var ErrNoRowsSelected = errors.New("mass edit requires at least one selected row")

// ErrMassEditInactive is returned when edit or apply is called outside an
// active mass-edit session.
var ErrMassEditInactive = errors.New("no mass edit in progress")

// MassEdit drives the bulk-edit flow: a synthetic record is edited in
// isolation and, on apply, its non-empty fields merge into every selected
// record as a single undoable transaction. Empty fields mean "no change";
// mass edit cannot blank a field across rows.
type MassEdit struct {
	active    bool
	rowKeys   []domain.RecordKey
	synthetic domain.UploadRecord
}

// Active reports whether a mass-edit session is in progress.
func (m *MassEdit) Active() bool { return m.active }

// SelectedCount returns the number of rows the session targets, for
// display on the synthetic row.
func (m *MassEdit) SelectedCount() int { return len(m.rowKeys) }

// Start opens a session over the selected row keys. The synthetic record
// begins with every template annotation at its type default.
func (m *MassEdit) Start(rowKeys []domain.RecordKey, template domain.Template) error {
	if len(rowKeys) == 0 {
		return ErrNoRowsSelected
	}
	m.active = true
	m.rowKeys = append([]domain.RecordKey(nil), rowKeys...)
	m.synthetic = EnsureAnnotationDefaults(domain.UploadRecord{
		Annotations: make(map[string]any, len(template.Annotations)),
	}, template)
	return nil
}

// SetValue edits one annotation on the synthetic record. The upload state
// and history are untouched until Apply.
func (m *MassEdit) SetValue(name string, value any) error {
	if !m.active {
		return ErrMassEditInactive
	}
	m.synthetic.Annotations[name] = domain.CloneValue(value)
	return nil
}

// Synthetic returns a copy of the synthetic record for display.
func (m *MassEdit) Synthetic() (domain.UploadRecord, bool) {
	if !m.active {
		return domain.UploadRecord{}, false
	}
	return m.synthetic.Clone(), true
}

// Apply merges every non-empty synthetic field into each selected record of
// state and ends the session. The returned state is a clone; committing it
// through the history as one transaction is the caller's responsibility.
// Selected keys missing from the state are skipped.
func (m *MassEdit) Apply(state UploadState) (UploadState, error) {
	if !m.active {
		return nil, ErrMassEditInactive
	}
	next := state.Clone()
	for _, key := range m.rowKeys {
		record, ok := next[key]
		if !ok {
			continue
		}
		if record.Annotations == nil {
			record.Annotations = make(map[string]any)
		}
		for name, value := range m.synthetic.Annotations {
			if domain.ValueEmpty(value) || isBooleanDefault(value) {
				continue
			}
			record.Annotations[name] = domain.CloneValue(value)
		}
		next[key] = record
	}
	m.reset()
	return next, nil
}

// Cancel discards the session without touching the upload state.
func (m *MassEdit) Cancel() {
	m.reset()
}

func (m *MassEdit) reset() {
	m.active = false
	m.rowKeys = nil
	m.synthetic = domain.UploadRecord{}
}

// isBooleanDefault recognizes the untouched [false] a boolean annotation
// starts with, which must not be pushed onto selected rows.
func isBooleanDefault(value any) bool {
	list, ok := domain.AsList(value)
	if !ok || len(list) != 1 {
		return false
	}
	b, isBool := list[0].(bool)
	return isBool && !b
}
