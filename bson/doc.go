// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package bson implements encoding and decoding of BSON documents.
//
// The Document type owns the raw bytes of a single BSON document and is the
// entry point for both the read and write paths. A Document is either in
// construction, where elements may be appended at the tail, or finalized,
// where the bytes are immutable and may be read concurrently.
//
// The Cursor type walks a Document's bytes element by element without
// copying. Decoding a full document produces a dynamic value tree built from
// the ordered D and A container types and the concrete scalar types defined
// in this package.
//
// Conversion to and from extended JSON is exposed through FromJSON and
// Document.ToJSON, covering both the canonical and relaxed forms.
package bson
