// Package normalisers holds the text extractors used by the document
// loader. Each subpackage handles one family of MIME types and returns the
// document's text with "\n" line endings.
package normalisers
