package domain

// RawDocument represents uploaded bytes before normalisation.
type RawDocument struct {
	// Name is the original file name or path, used for format sniffing.
	Name string

	// MIMEType is the declared content type (e.g., "application/pdf").
	MIMEType string

	// Format is the declared format. Empty means sniff from content.
	Format Format

	// Content is the raw bytes.
	Content []byte
}
