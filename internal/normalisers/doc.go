// Package normalisers provides implementations of the Normaliser interface
// for the supported upload formats. Each normaliser decodes one format into
// whitespace-normalised text plus offset mappings back to pages, paragraphs
// or sheet rows.
//
// Normalisers are registered with the Registry at startup. The set is
// closed: one normaliser per domain.Format.
package normalisers
