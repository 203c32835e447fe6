// Package normalisers holds the document text extractors. The corpus is
// PDF only, so pdf is the single implementation of driven.TextExtractor.
package normalisers
