package domain

// CorpusOp is the kind of change seen in the corpus directory.
type CorpusOp string

// Corpus operations.
const (
	CorpusCreated CorpusOp = "created"
	CorpusChanged CorpusOp = "changed"
	CorpusRemoved CorpusOp = "removed"
)

// CorpusEvent reports a change to one PDF in the corpus directory.
type CorpusEvent struct {
	Op       CorpusOp
	Document SourceDocument
}
