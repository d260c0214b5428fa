// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"github.com/google/uuid"
)

// UUID is a 16-byte universally unique identifier. On the wire it is encoded
// as a binary element with subtype 4.
type UUID [16]byte

// NilUUID is the zero value for UUID.
var NilUUID UUID

// NewUUID returns a random (version 4) UUID or panics.
func NewUUID() UUID {
	return UUID(uuid.New())
}

// ParseUUID decodes s into a UUID. The standard forms with and without
// hyphens are accepted.
func ParseUUID(s string) (UUID, error) {
	u, err := uuid.Parse(s)
	return UUID(u), err
}

// String returns the canonical xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx form.
func (id UUID) String() string {
	return uuid.UUID(id).String()
}

// IsZero returns true if id is the empty UUID.
func (id UUID) IsZero() bool {
	return id == NilUUID
}

// Binary returns the UUID as a Binary value with subtype 4.
func (id UUID) Binary() Binary {
	data := make([]byte, 16)
	copy(data, id[:])
	return Binary{Subtype: TypeBinaryUUID, Data: data}
}

// UUID converts a Binary value carrying a UUID subtype back into a UUID. ok
// is false when the subtype or length does not match.
func (b Binary) UUID() (UUID, bool) {
	if b.Subtype != TypeBinaryUUID && b.Subtype != TypeBinaryUUIDOld {
		return NilUUID, false
	}
	if len(b.Data) != 16 {
		return NilUUID, false
	}
	var id UUID
	copy(id[:], b.Data)
	return id, true
}

// AppendUUID appends id as a binary element with subtype 4.
func (d *Document) AppendUUID(key string, id UUID) error {
	return d.AppendBinary(key, TypeBinaryUUID, id[:])
}
