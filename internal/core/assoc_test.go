package core

import (
	"reflect"
	"testing"

	"annotcore/pkg/domain"
)

func TestCanAssociateWells(t *testing.T) {
	record := domain.UploadRecord{File: "a", WellIDs: []int{1, 2}}
	if CanAssociateWells(record, nil) {
		t.Fatal("empty selection must not be associable")
	}
	if CanAssociateWells(record, []int{1, 2}) {
		t.Fatal("subset selection changes nothing")
	}
	if !CanAssociateWells(record, []int{2, 3}) {
		t.Fatal("selection with a new well must be associable")
	}
}

func TestCanDisassociateWells(t *testing.T) {
	record := domain.UploadRecord{File: "a", WellIDs: []int{1, 2}}
	if CanDisassociateWells(record, []int{3, 4}) {
		t.Fatal("disjoint selection must not be disassociable")
	}
	if !CanDisassociateWells(record, []int{2, 9}) {
		t.Fatal("intersecting selection must be disassociable")
	}
}

func TestAssociateWellsMergesSortedUnique(t *testing.T) {
	record := domain.UploadRecord{File: "a", WellIDs: []int{5, 1}}
	out := AssociateWells(record, []int{3, 1, 3})
	if !reflect.DeepEqual(out.WellIDs, []int{1, 3, 5}) {
		t.Fatalf("merged wells = %v", out.WellIDs)
	}
	if !reflect.DeepEqual(record.WellIDs, []int{5, 1}) {
		t.Fatal("input record was mutated")
	}
}

func TestDisassociateWellsRemovesSelection(t *testing.T) {
	record := domain.UploadRecord{File: "a", WellIDs: []int{1, 2, 3}}
	out := DisassociateWells(record, []int{2, 9})
	if !reflect.DeepEqual(out.WellIDs, []int{1, 3}) {
		t.Fatalf("remaining wells = %v", out.WellIDs)
	}
}

func TestWellAssociationInvertsForDisjointSelections(t *testing.T) {
	record := domain.UploadRecord{File: "a", WellIDs: []int{1, 2}}
	selection := []int{7, 8}
	roundTrip := DisassociateWells(AssociateWells(record, selection), selection)
	if !reflect.DeepEqual(roundTrip.WellIDs, []int{1, 2}) {
		t.Fatalf("round trip wells = %v", roundTrip.WellIDs)
	}
}

func TestMutualFilesForWells(t *testing.T) {
	state := NewUploadState(
		domain.UploadRecord{File: "both.czi", WellIDs: []int{1, 2, 3}},
		domain.UploadRecord{File: "partial.czi", WellIDs: []int{1}},
		domain.UploadRecord{File: "none.czi"},
	)
	if got := MutualFilesForWells(state, []int{1, 2}); !reflect.DeepEqual(got, []string{"both.czi"}) {
		t.Fatalf("mutual files = %v", got)
	}
	if got := MutualFilesForWells(state, nil); got != nil {
		t.Fatalf("empty selection must select nothing, got %v", got)
	}
}

func TestWorkflowAssociation(t *testing.T) {
	record := domain.UploadRecord{File: "a", Workflows: []string{"Pipeline 4"}}
	if !CanAssociateWorkflows(record, []string{"Pipeline 5"}) {
		t.Fatal("new workflow must be associable")
	}
	if CanAssociateWorkflows(record, []string{"Pipeline 4"}) {
		t.Fatal("existing workflow changes nothing")
	}

	out := AssociateWorkflows(record, []string{"Pipeline 5", "Pipeline 4"})
	if !reflect.DeepEqual(out.Workflows, []string{"Pipeline 4", "Pipeline 5"}) {
		t.Fatalf("merged workflows = %v", out.Workflows)
	}

	out = DisassociateWorkflows(out, []string{"Pipeline 4"})
	if !reflect.DeepEqual(out.Workflows, []string{"Pipeline 5"}) {
		t.Fatalf("remaining workflows = %v", out.Workflows)
	}
	if !CanDisassociateWorkflows(out, []string{"Pipeline 5"}) {
		t.Fatal("present workflow must be disassociable")
	}
}

func TestMutualFilesForWorkflows(t *testing.T) {
	state := NewUploadState(
		domain.UploadRecord{File: "a.czi", Workflows: []string{"W1", "W2"}},
		domain.UploadRecord{File: "b.czi", Workflows: []string{"W1"}},
	)
	if got := MutualFilesForWorkflows(state, []string{"W1"}); !reflect.DeepEqual(got, []string{"a.czi", "b.czi"}) {
		t.Fatalf("mutual files = %v", got)
	}
	if got := MutualFilesForWorkflows(state, []string{"W1", "W2"}); !reflect.DeepEqual(got, []string{"a.czi"}) {
		t.Fatalf("mutual files = %v", got)
	}
}
