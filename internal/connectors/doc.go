// Package connectors provides access to the document corpus. The
// filesystem connector lists the PDFs of a directory and watches it for
// new files.
package connectors
