// Package core orchestrates analysis requests for uploaded tabular files.
//
// It sits between the HTTP layer and the dataset engine and owns everything
// that has side effects: concurrency limits, the on-disk working copy of an
// upload, the metadata record of who uploaded what, and the translation of
// technical errors into user-facing messages.
//
// # Request Lifecycle
//
// Every analysis operation on [Service] follows the same steps:
//
//  1. Validate the upload (file present, supported extension)
//  2. Acquire a slot from the [Limiter]
//  3. Stage the bytes as a working copy in the [Workspace]
//  4. Append an [UploadRecord] to the [RecordStore], if one is configured
//  5. Load the table and run exactly one engine under the analysis timeout
//  6. Remove the working copy and release the slot
//
// Nothing is cached between requests. Each request parses its file anew.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE006: File errors (size, content, format)
//   - COL001-COL002: Column errors (unknown or missing column)
//   - UPL002-UPL005: Capacity and timeout errors
//   - REC001: Upload history not configured
//   - RATE001: Rate limited
//   - ERR000: Anything unrecognized
package core
