// Package file provides the on-disk configuration adapters: the TOML
// settings store and the editable prompt templates, both under ~/.findoc.
package file
