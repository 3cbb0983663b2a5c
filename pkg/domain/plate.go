package domain

// Display names used when reporting the plate-derived required fields.
// Wells and imaging sessions are not template annotations but participate
// in required-field validation whenever a plate barcode is set.
const (
	WellAnnotationName           = "Well"
	ImagingSessionAnnotationName = "Imaging Session"
)

// Well is one addressable position on a plate. Row and Col are zero-based.
type Well struct {
	ID             int    `json:"wellId"`
	Row            int    `json:"row"`
	Col            int    `json:"col"`
	CellPopulation string `json:"cellPopulation,omitempty"`
	Solutions      string `json:"solutions,omitempty"`
}

// Plate is the metadata for one barcode, optionally scoped to an imaging
// session. A barcode with no session-scoped plates has no imaging sessions.
type Plate struct {
	PlateID          int    `json:"plateId"`
	Barcode          string `json:"barcode"`
	ImagingSessionID *int   `json:"imagingSessionId,omitempty"`
}

// BarcodeHasImagingSessions reports whether any plate registered for the
// barcode is scoped to an imaging session.
func BarcodeHasImagingSessions(platesByBarcode map[string][]Plate, barcode string) bool {
	for _, p := range platesByBarcode[barcode] {
		if p.ImagingSessionID != nil {
			return true
		}
	}
	return false
}

// WorkflowOption carries the display metadata for a selectable workflow.
type WorkflowOption struct {
	ID          int    `json:"workflowId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// WorkflowSource resolves workflow names to their display metadata. The
// lookup is an external collaborator; the engine only stores names.
type WorkflowSource interface {
	WorkflowOptions() ([]WorkflowOption, error)
}
