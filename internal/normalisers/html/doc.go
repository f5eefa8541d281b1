// Package html extracts readable text from HTML documents. Scripts, styles
// and markup are dropped and entities are decoded.
package html
