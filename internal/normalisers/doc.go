// Package normalisers turns saved files into plain-text documents for the
// knowledge base. Each sub-package handles a family of MIME types; the
// Registry picks the highest-priority handler for a file.
package normalisers
