// Package domain defines the core business entities for findoc.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: Uploaded bytes with a declared or sniffed format
//   - Document: Normalised text with offset-to-location mappings
//   - ExtractedEntity: A typed field recovered from a document
//   - Chunk: A retrievable unit of document text
//   - Session: A question-answering conversation bound to one document
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
