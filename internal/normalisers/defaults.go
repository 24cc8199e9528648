package normalisers

import (
	"github.com/custodia-labs/findoc/internal/normalisers/docx"
	"github.com/custodia-labs/findoc/internal/normalisers/markdown"
	"github.com/custodia-labs/findoc/internal/normalisers/pdf"
	"github.com/custodia-labs/findoc/internal/normalisers/plaintext"
	"github.com/custodia-labs/findoc/internal/normalisers/xlsx"
)

// RegisterDefaults registers the built-in normaliser for every format.
func RegisterDefaults(r *Registry) {
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(xlsx.New())
}

// NewDefaultRegistry returns a registry with all built-in normalisers.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
