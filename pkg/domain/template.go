package domain

import "fmt"

// AnnotationType identifies the declared value type of an annotation. The
// set is closed; the validator matches it exhaustively and reports any
// unrecognized type as a data error instead of guessing.
type AnnotationType string

// Supported annotation value types.
const (
	TypeText     AnnotationType = "Text"
	TypeNumber   AnnotationType = "Number"
	TypeBoolean  AnnotationType = "YesNo"
	TypeDropdown AnnotationType = "Dropdown"
	TypeLookup   AnnotationType = "Lookup"
	TypeDuration AnnotationType = "Duration"
	TypeDate     AnnotationType = "Date"
	TypeDateTime AnnotationType = "DateTime"
)

// Known reports whether the type is one of the supported variants.
func (t AnnotationType) Known() bool {
	switch t {
	case TypeText, TypeNumber, TypeBoolean, TypeDropdown, TypeLookup, TypeDuration, TypeDate, TypeDateTime:
		return true
	}
	return false
}

// AnnotationDefinition describes one named, typed annotation within a
// template. Options constrain Dropdown and Lookup values to an enumerated
// set; LookupTable names the backing table for Lookup annotations.
type AnnotationDefinition struct {
	ID          int            `json:"annotationId"`
	Name        string         `json:"name"`
	Type        AnnotationType `json:"annotationTypeName"`
	Required    bool           `json:"required"`
	Options     []string       `json:"annotationOptions,omitempty"`
	LookupTable string         `json:"lookupTable,omitempty"`
}

// Template is the ordered set of annotation definitions governing
// validation and upload payloads. Only one template is applied at a time.
type Template struct {
	ID          int                    `json:"templateId"`
	Name        string                 `json:"name"`
	Version     int                    `json:"version"`
	Annotations []AnnotationDefinition `json:"annotations"`
}

// Definition returns the annotation definition for a name.
func (t Template) Definition(name string) (AnnotationDefinition, bool) {
	for _, a := range t.Annotations {
		if a.Name == name {
			return a, true
		}
	}
	return AnnotationDefinition{}, false
}

// Names returns the annotation names in template order.
func (t Template) Names() []string {
	out := make([]string, len(t.Annotations))
	for i, a := range t.Annotations {
		out[i] = a.Name
	}
	return out
}

// RequiredNames returns the names of required annotations in template order.
func (t Template) RequiredNames() []string {
	var out []string
	for _, a := range t.Annotations {
		if a.Required {
			out = append(out, a.Name)
		}
	}
	return out
}

// Clone deep-copies the template.
func (t Template) Clone() Template {
	cp := t
	cp.Annotations = make([]AnnotationDefinition, len(t.Annotations))
	for i, a := range t.Annotations {
		a.Options = append([]string(nil), a.Options...)
		cp.Annotations[i] = a
	}
	return cp
}

// DurationValue is the structured value shape for Duration annotations.
type DurationValue struct {
	Days    float64 `json:"days"`
	Hours   float64 `json:"hours"`
	Minutes float64 `json:"minutes"`
	Seconds float64 `json:"seconds"`
}

// TotalMilliseconds collapses the duration to milliseconds for submission.
func (d DurationValue) TotalMilliseconds() int64 {
	ms := d.Days*24*60*60*1000 + d.Hours*60*60*1000 + d.Minutes*60*1000 + d.Seconds*1000
	return int64(ms)
}

// Valid reports whether every component is a non-negative number.
func (d DurationValue) Valid() bool {
	return d.Days >= 0 && d.Hours >= 0 && d.Minutes >= 0 && d.Seconds >= 0
}

// AsDurationValue coerces an annotation element into a DurationValue.
// Elements arrive either as the struct itself or, after a JSON round trip,
// as a generic map.
func AsDurationValue(element any) (DurationValue, bool) {
	switch v := element.(type) {
	case DurationValue:
		return v, true
	case map[string]any:
		var d DurationValue
		fields := map[string]*float64{
			"days":    &d.Days,
			"hours":   &d.Hours,
			"minutes": &d.Minutes,
			"seconds": &d.Seconds,
		}
		for name, target := range fields {
			raw, ok := v[name]
			if !ok {
				return DurationValue{}, false
			}
			n, ok := AsNumber(raw)
			if !ok {
				return DurationValue{}, false
			}
			*target = n
		}
		return d, true
	default:
		return DurationValue{}, false
	}
}

// AsNumber coerces the numeric representations that reach annotation values
// (native ints and floats, and float64 from JSON decoding).
func AsNumber(element any) (float64, bool) {
	switch v := element.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// Stringify renders an annotation element the way error messages and
// payloads display it.
func Stringify(element any) string {
	switch v := element.(type) {
	case string:
		return v
	case float64:
		// Trim the trailing ".0" JSON decoding adds to whole numbers.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
