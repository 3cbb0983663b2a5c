package core

import (
	"sort"

	"annotcore/pkg/domain"
)

// Association logic for plate wells and workflows. Both relations live
// directly on the upload records; association and disassociation are plain
// set union and difference so they invert each other exactly.

// CanAssociateWells reports whether associating the selection with the
// record would change anything: the selection must be non-empty and not
// already a subset of the record's wells.
func CanAssociateWells(record domain.UploadRecord, selectedWellIDs []int) bool {
	if len(selectedWellIDs) == 0 {
		return false
	}
	existing := intSet(record.WellIDs)
	for _, id := range selectedWellIDs {
		if _, ok := existing[id]; !ok {
			return true
		}
	}
	return false
}

// CanDisassociateWells reports whether the selection intersects the
// record's wells at all.
func CanDisassociateWells(record domain.UploadRecord, selectedWellIDs []int) bool {
	existing := intSet(record.WellIDs)
	for _, id := range selectedWellIDs {
		if _, ok := existing[id]; ok {
			return true
		}
	}
	return false
}

// AssociateWells returns the record with the selection merged into its
// wells, deduplicated and sorted. Order never carries meaning for wells.
func AssociateWells(record domain.UploadRecord, selectedWellIDs []int) domain.UploadRecord {
	out := record.Clone()
	merged := intSet(out.WellIDs)
	for _, id := range selectedWellIDs {
		merged[id] = struct{}{}
	}
	out.WellIDs = sortedIntSet(merged)
	return out
}

// DisassociateWells returns the record with the selection removed from its
// wells.
func DisassociateWells(record domain.UploadRecord, selectedWellIDs []int) domain.UploadRecord {
	out := record.Clone()
	remove := intSet(selectedWellIDs)
	var kept []int
	for _, id := range out.WellIDs {
		if _, drop := remove[id]; !drop {
			kept = append(kept, id)
		}
	}
	sort.Ints(kept)
	out.WellIDs = kept
	return out
}

// MutualFilesForWells returns every file whose record wells are a superset
// of the selection, sorted. An empty selection selects nothing.
func MutualFilesForWells(state UploadState, selectedWellIDs []int) []string {
	if len(selectedWellIDs) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	for _, record := range state {
		existing := intSet(record.WellIDs)
		mutual := true
		for _, id := range selectedWellIDs {
			if _, ok := existing[id]; !ok {
				mutual = false
				break
			}
		}
		if mutual {
			seen[record.File] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Workflow association mirrors the well flow, keyed on workflow names.

// CanAssociateWorkflows reports whether the selection would add a workflow.
func CanAssociateWorkflows(record domain.UploadRecord, workflows []string) bool {
	if len(workflows) == 0 {
		return false
	}
	existing := stringSet(record.Workflows)
	for _, w := range workflows {
		if _, ok := existing[w]; !ok {
			return true
		}
	}
	return false
}

// CanDisassociateWorkflows reports whether the selection intersects the
// record's workflows.
func CanDisassociateWorkflows(record domain.UploadRecord, workflows []string) bool {
	existing := stringSet(record.Workflows)
	for _, w := range workflows {
		if _, ok := existing[w]; ok {
			return true
		}
	}
	return false
}

// AssociateWorkflows merges the workflows into the record, deduplicated.
func AssociateWorkflows(record domain.UploadRecord, workflows []string) domain.UploadRecord {
	out := record.Clone()
	merged := stringSet(out.Workflows)
	for _, w := range workflows {
		merged[w] = struct{}{}
	}
	out.Workflows = sortedStringSet(merged)
	return out
}

// DisassociateWorkflows removes the workflows from the record.
func DisassociateWorkflows(record domain.UploadRecord, workflows []string) domain.UploadRecord {
	out := record.Clone()
	remove := stringSet(workflows)
	var kept []string
	for _, w := range out.Workflows {
		if _, drop := remove[w]; !drop {
			kept = append(kept, w)
		}
	}
	sort.Strings(kept)
	out.Workflows = kept
	return out
}

// MutualFilesForWorkflows returns every file whose workflows are a superset
// of the selection, sorted.
func MutualFilesForWorkflows(state UploadState, workflows []string) []string {
	if len(workflows) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	for _, record := range state {
		existing := stringSet(record.Workflows)
		mutual := true
		for _, w := range workflows {
			if _, ok := existing[w]; !ok {
				mutual = false
				break
			}
		}
		if mutual {
			seen[record.File] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func intSet(values []int) map[int]struct{} {
	set := make(map[int]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func sortedIntSet(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func stringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func sortedStringSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
