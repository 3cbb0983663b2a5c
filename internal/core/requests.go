package core

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"annotcore/pkg/domain"
)

// Serialized date formats for submitted annotation values.
const (
	dateFormat     = "2006-01-02"
	dateTimeFormat = "2006-01-02 15:04:05"
)

// fileTypeByExtension is the static extension-to-type table used when
// deriving the submitted file type. Unknown extensions submit as "other".
var fileTypeByExtension = map[string]string{
	".czi":  "image",
	".tiff": "image",
	".tif":  "image",
	".ome":  "image",
	".png":  "image",
	".jpg":  "image",
	".jpeg": "image",
	".gif":  "image",
	".pdf":  "image",
	".txt":  "text",
	".log":  "text",
	".csv":  "csv",
	".xml":  "text",
	".zip":  "zip",
}

// FileTypeFor derives the submitted file type from a path's extension.
func FileTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := fileTypeByExtension[ext]; ok {
		return t
	}
	return "other"
}

// UploadRequest is the per-file submission payload handed to the upload
// collaborator.
type UploadRequest struct {
	File           RequestFile     `json:"file"`
	CustomMetadata RequestMetadata `json:"customMetadata"`
	Microscopy     *Microscopy     `json:"microscopy,omitempty"`
}

// RequestFile identifies the file being submitted.
type RequestFile struct {
	OriginalPath string `json:"originalPath"`
	FileType     string `json:"fileType"`
}

// RequestMetadata carries the flattened annotation values for every
// dimension of the file.
type RequestMetadata struct {
	TemplateID  int                 `json:"templateId"`
	Annotations []RequestAnnotation `json:"annotations"`
}

// RequestAnnotation is one annotation value on one dimension, keyed by the
// template's annotation id. Discriminators identify the dimension.
type RequestAnnotation struct {
	AnnotationID  int      `json:"annotationId"`
	PositionIndex *int     `json:"positionIndex,omitempty"`
	Scene         *int     `json:"scene,omitempty"`
	SubImageName  *string  `json:"subImageName,omitempty"`
	ChannelID     *string  `json:"channelId,omitempty"`
	Values        []string `json:"values"`
}

// Microscopy carries the well associations for the file, omitted entirely
// when no dimension is associated.
type Microscopy struct {
	WellIDs []int `json:"wellIds"`
}

// UploadRequests groups the state by file and emits one request per file.
// Annotation values whose names the template does not define are excluded
// by policy; they are stale leftovers from a template switch, not errors.
func UploadRequests(state UploadState, template domain.Template) []UploadRequest {
	files := state.Files()
	out := make([]UploadRequest, 0, len(files))
	for _, file := range files {
		records := state.ForFile(file)

		req := UploadRequest{
			File: RequestFile{
				OriginalPath: file,
				FileType:     FileTypeFor(file),
			},
			CustomMetadata: RequestMetadata{
				TemplateID:  template.ID,
				Annotations: []RequestAnnotation{},
			},
		}

		wells := make(map[int]struct{})
		for _, record := range records {
			for _, id := range record.WellIDs {
				wells[id] = struct{}{}
			}
			req.CustomMetadata.Annotations = append(req.CustomMetadata.Annotations,
				recordAnnotations(record, template)...)
		}
		if len(wells) > 0 {
			req.Microscopy = &Microscopy{WellIDs: sortedIntSet(wells)}
		}
		out = append(out, req)
	}
	return out
}

// recordAnnotations flattens one dimension record's non-empty, in-template
// annotation values in template order.
func recordAnnotations(record domain.UploadRecord, template domain.Template) []RequestAnnotation {
	var out []RequestAnnotation
	for _, def := range template.Annotations {
		value, ok := record.Annotations[def.Name]
		if !ok || domain.ValueEmpty(value) {
			continue
		}
		list, ok := domain.AsList(value)
		if !ok {
			continue
		}
		values := make([]string, 0, len(list))
		for _, e := range list {
			values = append(values, serializeElement(def.Type, e))
		}
		out = append(out, RequestAnnotation{
			AnnotationID:  def.ID,
			PositionIndex: record.PositionIndex,
			Scene:         record.Scene,
			SubImageName:  record.SubImageName,
			ChannelID:     record.ChannelID,
			Values:        values,
		})
	}
	return out
}

// serializeElement renders one annotation element for submission: dates in
// their canonical formats, durations as total milliseconds, everything else
// stringified.
func serializeElement(t domain.AnnotationType, element any) string {
	switch t {
	case domain.TypeDate:
		if ts, ok := asTime(element); ok {
			return ts.Format(dateFormat)
		}
	case domain.TypeDateTime:
		if ts, ok := asTime(element); ok {
			return ts.Format(dateTimeFormat)
		}
	case domain.TypeDuration:
		if d, ok := domain.AsDurationValue(element); ok {
			return strconv.FormatInt(d.TotalMilliseconds(), 10)
		}
	}
	return domain.Stringify(element)
}

func asTime(element any) (time.Time, bool) {
	switch v := element.(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, v); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}
