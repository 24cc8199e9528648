// Package extractors holds the entity recognisers that feed the extractor
// service. The pattern recogniser applies deterministic rules; the
// statistical recogniser maps a NER model's labels onto entity types.
// Both emit domain.Candidate values tagged with their strategy; the
// extractor service reconciles them.
package extractors
