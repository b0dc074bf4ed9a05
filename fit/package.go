// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fit decodes files in the FIT (Flexible and Interoperable Data
// Transfer) format: a self-describing, record-oriented container used by
// fitness devices to log activities, courses, and device settings.
//
// Decoding a FIT file starts with a call to Open or New. A FIT file
// is a concatenation of one or more sub-files, each carrying a header, a
// sequence of definition and data records, and a trailing CRC. Definition
// records describe the on-disk layout of the data records that follow them
// for a given local message number; data records are decoded against the
// most recent definition for their local message number and looked up
// against the profile (package fit/profile) to produce named, typed
// fields.
package fit // import "github.com/go-fitdecode/fitdecode/fit"
