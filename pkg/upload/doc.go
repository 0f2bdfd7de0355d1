// Package upload stages files sent by widgets outside the delta channel.
//
// Large payloads do not belong in delta batches. A file-picker widget
// posts the file to the HTTP staging endpoint, receives a staging ID, and
// forwards only that ID in its user event. The server side then claims
// the staged file by ID; claiming consumes it. Unclaimed files expire and
// are swept.
package upload
