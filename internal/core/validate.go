package core

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"annotcore/pkg/domain"
)

// listDelimiter separates values while the user is still typing a list into
// a text or number cell. A trailing delimiter means the entry is unfinished.
const listDelimiter = ","

// CellErrorsMessage is the single summary line appended to the validation
// error list whenever any per-cell error exists.
const CellErrorsMessage = "There are errors in the upload table. Hover over the error icon in each cell for details."

const invalidListMessage = "Invalid format, expected list"

// AnnotationErrors computes the per-cell error map: for every record and
// every annotation on it that the template defines, the type and format
// violations keyed by record identity then annotation name. Records with no
// violations do not appear. Values named outside the template are ignored
// here by policy; stale data surviving a template switch is not an error.
func AnnotationErrors(state UploadState, template domain.Template) map[domain.RecordKey]map[string]string {
	result := make(map[domain.RecordKey]map[string]string)
	for _, key := range state.SortedKeys() {
		record := state[key]
		var cellErrors map[string]string
		for name, value := range record.Annotations {
			def, inTemplate := template.Definition(name)
			if !inTemplate {
				continue
			}
			msg := annotationValueError(def, value)
			if msg == "" {
				continue
			}
			if cellErrors == nil {
				cellErrors = make(map[string]string)
			}
			cellErrors[name] = msg
		}
		if cellErrors != nil {
			result[key] = cellErrors
		}
	}
	return result
}

// annotationValueError checks one stored value against its definition and
// returns the error message, or "" when the value is well formed. The
// switch over annotation types is exhaustive; an unrecognized declared type
// is itself reported as a data error.
func annotationValueError(def domain.AnnotationDefinition, value any) string {
	list, ok := domain.AsList(value)
	if !ok {
		return invalidListMessage
	}
	if len(list) == 0 {
		return ""
	}

	switch def.Type {
	case domain.TypeDropdown, domain.TypeLookup:
		return optionMembershipError(list, def.Options)
	case domain.TypeBoolean:
		return elementTypeError(list, def.Type, func(e any) bool {
			_, isBool := e.(bool)
			return isBool
		})
	case domain.TypeNumber:
		if strings.HasSuffix(domain.Stringify(list[0]), listDelimiter) {
			return "value cannot end with a comma"
		}
		return elementTypeError(list, def.Type, func(e any) bool {
			_, isNumber := domain.AsNumber(e)
			return isNumber
		})
	case domain.TypeText:
		if strings.HasSuffix(domain.Stringify(list[0]), listDelimiter) {
			return "value cannot end with a comma"
		}
		return elementTypeError(list, def.Type, func(e any) bool {
			_, isString := e.(string)
			return isString
		})
	case domain.TypeDuration:
		return durationError(list)
	case domain.TypeDate, domain.TypeDateTime:
		return elementTypeError(list, def.Type, isDateElement)
	default:
		return "Unexpected data type"
	}
}

func optionMembershipError(list []any, options []string) string {
	allowed := make(map[string]struct{}, len(options))
	for _, o := range options {
		allowed[o] = struct{}{}
	}
	var bad []string
	for _, e := range list {
		if _, ok := allowed[domain.Stringify(e)]; !ok {
			bad = append(bad, domain.Stringify(e))
		}
	}
	if len(bad) == 0 {
		return ""
	}
	return fmt.Sprintf("%s did not match any of the expected values: %s",
		strings.Join(bad, ", "), strings.Join(options, ", "))
}

func elementTypeError(list []any, t domain.AnnotationType, valid func(any) bool) string {
	var bad []string
	for _, e := range list {
		if !valid(e) {
			bad = append(bad, domain.Stringify(e))
		}
	}
	if len(bad) == 0 {
		return ""
	}
	return fmt.Sprintf("%s did not match expected type: %s", strings.Join(bad, ", "), t)
}

func durationError(list []any) string {
	if len(list) > 1 {
		return "only one duration value may be entered"
	}
	d, ok := domain.AsDurationValue(list[0])
	if !ok || !d.Valid() {
		return "days, hours, minutes, and seconds must be non-negative numbers"
	}
	return ""
}

// dateLayouts are the accepted string forms for Date and DateTime values.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

func isDateElement(e any) bool {
	switch v := e.(type) {
	case time.Time:
		return true
	case string:
		for _, layout := range dateLayouts {
			if _, err := time.Parse(layout, v); err == nil {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// FileAnnotationHasValue reports, per file and annotation name, whether any
// dimension record of that file carries a non-empty value. Annotations
// entered at the channel or sub-image level satisfy requirements for the
// parent file. Well association counts as a value for the Well field.
func FileAnnotationHasValue(state UploadState) map[string]map[string]bool {
	result := make(map[string]map[string]bool)
	for _, key := range state.SortedKeys() {
		record := state[key]
		fileValues, ok := result[record.File]
		if !ok {
			fileValues = make(map[string]bool)
			result[record.File] = fileValues
		}
		for name, value := range record.Annotations {
			if !domain.ValueEmpty(value) {
				fileValues[name] = true
			}
		}
		if len(record.WellIDs) > 0 {
			fileValues[domain.WellAnnotationName] = true
		}
	}
	return result
}

// ValidationErrors builds the flat, human-readable error list that blocks
// submission. Order: non-ASCII content first, then per-file missing
// required annotations (including the plate-driven Well and Imaging Session
// requirements), then a single summary line when per-cell errors exist.
// A nil template means no validation applies yet.
func ValidationErrors(
	rows []Row,
	hasValue map[string]map[string]bool,
	cellErrors map[domain.RecordKey]map[string]string,
	platesByBarcode map[string][]domain.Plate,
	template *domain.Template,
) []string {
	if template == nil {
		return nil
	}

	var errors []string
	errors = append(errors, specialCharacterErrors(rows)...)

	for _, file := range topLevelFiles(rows) {
		missing := missingRequiredNames(rows, file, hasValue[file], platesByBarcode, *template)
		if len(missing) == 0 {
			continue
		}
		errors = append(errors, fmt.Sprintf("%q is missing the following required annotations: %s",
			filepath.Base(file), strings.Join(missing, ", ")))
	}

	if len(cellErrors) > 0 {
		errors = append(errors, CellErrorsMessage)
	}
	return errors
}

// specialCharacterErrors scans every row's annotation values for non-ASCII
// content. Offending values are reported but scanning continues; one bad
// value never hides another.
func specialCharacterErrors(rows []Row) []string {
	var errors []string
	var visit func(Row)
	visit = func(row Row) {
		fields := StripInternalFields(FlatMap(row.Record))
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			list, ok := domain.AsList(fields[name])
			if !ok {
				continue
			}
			for _, e := range list {
				s, isString := e.(string)
				if isString && !isASCII(s) {
					errors = append(errors, fmt.Sprintf(
						"Annotations cannot have special characters like in %q for %s", s, name))
				}
			}
		}
		for _, sub := range row.SubRows {
			visit(sub)
		}
	}
	for _, row := range rows {
		visit(row)
	}
	return errors
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// topLevelFiles returns the distinct files backing top-level rows, in row
// order.
func topLevelFiles(rows []Row) []string {
	var files []string
	seen := make(map[string]struct{})
	for _, row := range rows {
		if _, dup := seen[row.Record.File]; dup {
			continue
		}
		seen[row.Record.File] = struct{}{}
		files = append(files, row.Record.File)
	}
	return files
}

// missingRequiredNames computes the required annotation names a file still
// lacks. A plate barcode raises two extra requirements: a well association
// always, and an imaging session whenever the barcode has any.
func missingRequiredNames(
	rows []Row,
	file string,
	fileHasValue map[string]bool,
	platesByBarcode map[string][]domain.Plate,
	template domain.Template,
) []string {
	var missing []string
	for _, name := range template.RequiredNames() {
		if !fileHasValue[name] {
			missing = append(missing, name)
		}
	}
	barcode := fileBarcode(rows, file)
	if barcode == "" {
		return missing
	}
	if domain.BarcodeHasImagingSessions(platesByBarcode, barcode) && !fileHasValue[domain.ImagingSessionAnnotationName] {
		missing = append(missing, domain.ImagingSessionAnnotationName)
	}
	if !fileHasValue[domain.WellAnnotationName] {
		missing = append(missing, domain.WellAnnotationName)
	}
	return missing
}

// fileBarcode finds the first non-empty plate barcode in the file's subtree.
func fileBarcode(rows []Row, file string) string {
	var find func(Row) string
	find = func(row Row) string {
		if row.Record.File == file && row.Record.Barcode != "" {
			return row.Record.Barcode
		}
		for _, sub := range row.SubRows {
			if b := find(sub); b != "" {
				return b
			}
		}
		return ""
	}
	for _, row := range rows {
		if b := find(row); b != "" {
			return b
		}
	}
	return ""
}
