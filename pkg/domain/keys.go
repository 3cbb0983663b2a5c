// Package domain defines the value types and pure contracts shared by the
// annotcore upload engine: record identities, upload records, annotation
// templates, and the plate/well and workflow collaborator types.
package domain

import (
	"fmt"
	"strings"
)

// OptionalInt is a comparable optional integer. It exists so RecordKey can
// carry absent position/scene discriminators while remaining usable as a map
// key; pointer fields would compare by address.
type OptionalInt struct {
	Value int
	Valid bool
}

// SomeInt returns a present OptionalInt holding v.
func SomeInt(v int) OptionalInt {
	return OptionalInt{Value: v, Valid: true}
}

// OptionalIntOf converts a possibly-nil pointer into an OptionalInt.
func OptionalIntOf(v *int) OptionalInt {
	if v == nil {
		return OptionalInt{}
	}
	return OptionalInt{Value: *v, Valid: true}
}

// Ptr returns the pointer form of the optional, nil when absent.
func (o OptionalInt) Ptr() *int {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// RecordKey is the composite identity of an upload record: the owning file
// plus at most one sub-image discriminator and an optional channel. No two
// records in an upload state may share a key.
type RecordKey struct {
	File          string
	PositionIndex OptionalInt
	Scene         OptionalInt
	SubImageName  string
	ChannelID     string
}

// FileKey returns the file-level key for a path.
func FileKey(file string) RecordKey {
	return RecordKey{File: file}
}

// FileOnly strips all discriminators, leaving the owning file identity.
func (k RecordKey) FileOnly() RecordKey {
	return RecordKey{File: k.File}
}

// IsFileLevel reports whether the key addresses the whole file.
func (k RecordKey) IsFileLevel() bool {
	return !k.PositionIndex.Valid && !k.Scene.Valid && k.SubImageName == "" && k.ChannelID == ""
}

// HasSubImage reports whether any sub-image discriminator is present.
func (k RecordKey) HasSubImage() bool {
	return k.PositionIndex.Valid || k.Scene.Valid || k.SubImageName != ""
}

// SubImageOnly strips the channel, leaving the sub-image (or file) identity.
func (k RecordKey) SubImageOnly() RecordKey {
	k.ChannelID = ""
	return k
}

// String renders a stable human-readable form used in diagnostics and for
// deterministic ordering of keyed output.
func (k RecordKey) String() string {
	var b strings.Builder
	b.WriteString(k.File)
	if k.PositionIndex.Valid {
		fmt.Fprintf(&b, "|position:%d", k.PositionIndex.Value)
	}
	if k.Scene.Valid {
		fmt.Fprintf(&b, "|scene:%d", k.Scene.Value)
	}
	if k.SubImageName != "" {
		b.WriteString("|subimage:")
		b.WriteString(k.SubImageName)
	}
	if k.ChannelID != "" {
		b.WriteString("|channel:")
		b.WriteString(k.ChannelID)
	}
	return b.String()
}
