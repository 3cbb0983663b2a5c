package domain

// UploadRecord holds the metadata captured for one dimension of a file:
// the whole file, one position/scene/sub-image within it, or one channel
// within a sub-image. The fixed core is statically typed; everything the
// applied template defines lives in Annotations, keyed by annotation name.
// Annotation values are stored as homogeneous lists by convention; the
// validator reports, rather than panics on, values that break the shape.
type UploadRecord struct {
	File          string         `json:"file"`
	PositionIndex *int           `json:"positionIndex,omitempty"`
	Scene         *int           `json:"scene,omitempty"`
	SubImageName  *string        `json:"subImageName,omitempty"`
	ChannelID     *string        `json:"channelId,omitempty"`
	Barcode       string         `json:"barcode,omitempty"`
	WellIDs       []int          `json:"wellIds,omitempty"`
	Workflows     []string       `json:"workflows,omitempty"`
	Annotations   map[string]any `json:"annotations"`
}

// Key derives the composite identity of the record.
func (r UploadRecord) Key() RecordKey {
	k := RecordKey{
		File:          r.File,
		PositionIndex: OptionalIntOf(r.PositionIndex),
		Scene:         OptionalIntOf(r.Scene),
	}
	if r.SubImageName != nil {
		k.SubImageName = *r.SubImageName
	}
	if r.ChannelID != nil {
		k.ChannelID = *r.ChannelID
	}
	return k
}

// IsFileLevel reports whether the record describes the whole file.
func (r UploadRecord) IsFileLevel() bool { return r.Key().IsFileLevel() }

// HasSubImage reports whether any of the mutually exclusive sub-image
// discriminators is set.
func (r UploadRecord) HasSubImage() bool { return r.Key().HasSubImage() }

// Clone returns a deep copy of the record. Snapshot-based history relies on
// clones never sharing mutable state with the original.
func (r UploadRecord) Clone() UploadRecord {
	cp := r
	if r.PositionIndex != nil {
		v := *r.PositionIndex
		cp.PositionIndex = &v
	}
	if r.Scene != nil {
		v := *r.Scene
		cp.Scene = &v
	}
	if r.SubImageName != nil {
		v := *r.SubImageName
		cp.SubImageName = &v
	}
	if r.ChannelID != nil {
		v := *r.ChannelID
		cp.ChannelID = &v
	}
	cp.WellIDs = append([]int(nil), r.WellIDs...)
	cp.Workflows = append([]string(nil), r.Workflows...)
	if r.Annotations != nil {
		cp.Annotations = make(map[string]any, len(r.Annotations))
		for name, value := range r.Annotations {
			cp.Annotations[name] = CloneValue(value)
		}
	}
	return cp
}

// CloneValue deep-copies an annotation value of any supported shape.
func CloneValue(value any) any {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = CloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	case []int:
		return append([]int(nil), v...)
	case []float64:
		return append([]float64(nil), v...)
	case []bool:
		return append([]bool(nil), v...)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = CloneValue(e)
		}
		return out
	default:
		return v
	}
}

// AsList coerces an annotation value into its list form. The second return
// is false when the stored value is not list-shaped, which the validator
// surfaces as a format error rather than an exception.
func AsList(value any) ([]any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, true
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, true
	case []int:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, true
	case []float64:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, true
	case []bool:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, true
	default:
		return nil, false
	}
}

// ValueEmpty reports whether an annotation value carries no user input.
// A nil value, an empty list, or a list whose only elements are nil or
// empty strings all count as empty.
func ValueEmpty(value any) bool {
	list, ok := AsList(value)
	if !ok {
		return false
	}
	for _, e := range list {
		switch v := e.(type) {
		case nil:
			continue
		case string:
			if v != "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}
