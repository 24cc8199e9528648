// Package services implements the driving ports: document ingestion,
// entity extraction, indexing, retrieval, answer generation and
// conversation state.
//
// Services only talk to infrastructure through driven ports, so every
// provider, store and index can be swapped or mocked.
package services
