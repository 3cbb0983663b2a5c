package core

import "annotcore/pkg/domain"

// internalFields is the explicit exclusion list of record fields that are
// never annotation values: identity, sub-image discriminators, and the
// association fields that serialize through their own payload sections.
var internalFields = map[string]struct{}{
	"file":          {},
	"key":           {},
	"positionIndex": {},
	"scene":         {},
	"subImageName":  {},
	"channelId":     {},
	"barcode":       {},
	"wellIds":       {},
	"workflows":     {},
}

// DefaultValue returns the normalized empty value for an annotation type:
// booleans display as an explicit false, everything else as an empty list.
func DefaultValue(t domain.AnnotationType) any {
	if t == domain.TypeBoolean {
		return []any{false}
	}
	return []any{}
}

// NormalizeValue coerces a stored annotation value to list form. Scalars
// wrap into a single-element list; nil becomes the type default.
func NormalizeValue(t domain.AnnotationType, value any) any {
	if value == nil {
		return DefaultValue(t)
	}
	if list, ok := domain.AsList(value); ok {
		if len(list) == 0 {
			return DefaultValue(t)
		}
		return list
	}
	return []any{value}
}

// EnsureAnnotationDefaults returns a copy of the record in which every
// template annotation holds a list-shaped value, filling absent ones with
// the type default. Values for names outside the template are left alone;
// the validator ignores them and the payload builder excludes them.
func EnsureAnnotationDefaults(record domain.UploadRecord, template domain.Template) domain.UploadRecord {
	out := record.Clone()
	if out.Annotations == nil {
		out.Annotations = make(map[string]any, len(template.Annotations))
	}
	for _, def := range template.Annotations {
		out.Annotations[def.Name] = NormalizeValue(def.Type, out.Annotations[def.Name])
	}
	return out
}

// StripInternalFields removes the non-annotation fields from a flat
// field-to-value map, leaving only annotation values. Used before a record
// is handed to validation display or serialized downstream.
func StripInternalFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for name, value := range fields {
		if _, internal := internalFields[name]; internal {
			continue
		}
		out[name] = value
	}
	return out
}

// FlatMap renders a record as the flat field map the grid consumes: the
// fixed fields under their serialized names plus every annotation value.
func FlatMap(record domain.UploadRecord) map[string]any {
	out := make(map[string]any, len(record.Annotations)+8)
	out["file"] = record.File
	out["key"] = record.Key().String()
	if record.PositionIndex != nil {
		out["positionIndex"] = *record.PositionIndex
	}
	if record.Scene != nil {
		out["scene"] = *record.Scene
	}
	if record.SubImageName != nil {
		out["subImageName"] = *record.SubImageName
	}
	if record.ChannelID != nil {
		out["channelId"] = *record.ChannelID
	}
	if record.Barcode != "" {
		out["barcode"] = record.Barcode
	}
	if len(record.WellIDs) > 0 {
		out["wellIds"] = append([]int(nil), record.WellIDs...)
	}
	if len(record.Workflows) > 0 {
		out["workflows"] = append([]string(nil), record.Workflows...)
	}
	for name, value := range record.Annotations {
		out[name] = domain.CloneValue(value)
	}
	return out
}
