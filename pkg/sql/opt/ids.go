// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// GlobalID identifies a collection known to the catalog.
type GlobalID uint64

// LocalID identifies a collection bound by a Let or LetRec.
type LocalID uint64

func (id GlobalID) String() string { return "u" + strconv.FormatUint(uint64(id), 10) }
func (id LocalID) String() string  { return "l" + strconv.FormatUint(uint64(id), 10) }

// SafeFormat implements redact.SafeFormatter.
func (id GlobalID) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(id.String()))
}

// SafeFormat implements redact.SafeFormatter.
func (id LocalID) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(id.String()))
}

// ID identifies the collection read by a Get: either a global collection or a
// local binding. IDs are comparable and can be used as map keys.
type ID struct {
	local bool
	id    uint64
}

// MakeGlobalID returns the ID of a global collection.
func MakeGlobalID(id GlobalID) ID {
	return ID{id: uint64(id)}
}

// MakeLocalID returns the ID of a local binding.
func MakeLocalID(id LocalID) ID {
	return ID{local: true, id: uint64(id)}
}

// IsLocal returns true if the ID refers to a local binding.
func (id ID) IsLocal() bool {
	return id.local
}

// Global returns the global collection ID, if this is one.
func (id ID) Global() (GlobalID, bool) {
	return GlobalID(id.id), !id.local
}

// Local returns the local binding ID, if this is one.
func (id ID) Local() (LocalID, bool) {
	return LocalID(id.id), id.local
}

// Less orders IDs: global collections first, then by number.
func (id ID) Less(other ID) bool {
	if id.local != other.local {
		return !id.local
	}
	return id.id < other.id
}

func (id ID) String() string {
	if id.local {
		return LocalID(id.id).String()
	}
	return GlobalID(id.id).String()
}

// SafeFormat implements redact.SafeFormatter.
func (id ID) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(id.String()))
}

// ParseID parses the output of ID.String, e.g. "u3" or "l0".
func ParseID(s string) (ID, error) {
	if len(s) < 2 || (s[0] != 'u' && s[0] != 'l') {
		return ID{}, errors.Newf("invalid collection id %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 10, 64)
	if err != nil {
		return ID{}, errors.Wrapf(err, "invalid collection id %q", s)
	}
	if s[0] == 'l' {
		return MakeLocalID(LocalID(v)), nil
	}
	return MakeGlobalID(GlobalID(v)), nil
}
