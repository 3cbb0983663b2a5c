package core

import (
	"path/filepath"
	"sort"

	"annotcore/pkg/domain"
)

// Row is one node in the display hierarchy: a file row owning sub-image and
// channel rows, a sub-image row owning channel rows, or a leaf. Rows carry
// no identity of their own; they are recomputed from the upload state on
// every change.
type Row struct {
	Key    domain.RecordKey
	Record domain.UploadRecord

	// Aggregated summaries over this row's record and all descendants,
	// deduplicated and sorted.
	PositionIndexes []int
	Scenes          []int
	SubImageNames   []string
	ChannelIDs      []string

	SubRows []Row
}

// BuildRows projects the flat upload state into ordered top-level rows, one
// per file. A file-level record anchors the file row and adopts channel-only
// and sub-image rows as children. A file with dimension records but no
// file-level record surfaces those rows flat at the top level; nothing is
// synthesized for it.
func BuildRows(state UploadState) []Row {
	var rows []Row
	for _, file := range state.Files() {
		records := state.ForFile(file)

		var fileRecord *domain.UploadRecord
		var channelOnly []domain.UploadRecord
		subImageGroups := make(map[domain.RecordKey][]domain.UploadRecord)
		var subImageOrder []domain.RecordKey

		for i := range records {
			r := records[i]
			key := r.Key()
			switch {
			case key.IsFileLevel():
				fileRecord = &records[i]
			case !key.HasSubImage():
				channelOnly = append(channelOnly, r)
			default:
				group := key.SubImageOnly()
				if _, seen := subImageGroups[group]; !seen {
					subImageOrder = append(subImageOrder, group)
				}
				subImageGroups[group] = append(subImageGroups[group], r)
			}
		}

		var children []Row
		for _, r := range channelOnly {
			children = append(children, newRow(r, nil))
		}
		for _, group := range subImageOrder {
			children = append(children, buildSubImageRows(group, subImageGroups[group])...)
		}

		if fileRecord == nil {
			// No file-level record: the dimension rows stand alone.
			rows = append(rows, children...)
			continue
		}
		rows = append(rows, newRow(*fileRecord, children))
	}
	return rows
}

// buildSubImageRows shapes one sub-image group. A record with no channel is
// the natural parent for its channel-bearing siblings; without one the
// group has no row to hang children on and stays flat.
func buildSubImageRows(group domain.RecordKey, records []domain.UploadRecord) []Row {
	var parent *domain.UploadRecord
	var channels []domain.UploadRecord
	for i := range records {
		if records[i].Key() == group {
			parent = &records[i]
		} else {
			channels = append(channels, records[i])
		}
	}
	if parent == nil {
		out := make([]Row, 0, len(channels))
		for _, r := range channels {
			out = append(out, newRow(r, nil))
		}
		return out
	}
	children := make([]Row, 0, len(channels))
	for _, r := range channels {
		children = append(children, newRow(r, nil))
	}
	return []Row{newRow(*parent, children)}
}

func newRow(record domain.UploadRecord, subRows []Row) Row {
	row := Row{Key: record.Key(), Record: record, SubRows: subRows}
	row.aggregate()
	return row
}

// aggregate scans the row's record and all descendants for non-nil
// discriminators and channels.
func (r *Row) aggregate() {
	positions := make(map[int]struct{})
	scenes := make(map[int]struct{})
	subImages := make(map[string]struct{})
	channels := make(map[string]struct{})

	var visit func(Row)
	visit = func(row Row) {
		rec := row.Record
		if rec.PositionIndex != nil {
			positions[*rec.PositionIndex] = struct{}{}
		}
		if rec.Scene != nil {
			scenes[*rec.Scene] = struct{}{}
		}
		if rec.SubImageName != nil {
			subImages[*rec.SubImageName] = struct{}{}
		}
		if rec.ChannelID != nil {
			channels[*rec.ChannelID] = struct{}{}
		}
		for _, sub := range row.SubRows {
			visit(sub)
		}
	}
	visit(*r)

	r.PositionIndexes = sortedInts(positions)
	r.Scenes = sortedInts(scenes)
	r.SubImageNames = sortedStrings(subImages)
	r.ChannelIDs = sortedStrings(channels)
}

func sortedInts(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func sortedStrings(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// UploadFileNames returns the sorted unique basenames of every file in the
// state.
func UploadFileNames(state UploadState) []string {
	seen := make(map[string]struct{})
	for _, file := range state.Files() {
		seen[filepath.Base(file)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
