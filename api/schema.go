package api

// DocumentVersion is written into every interchange document.
const DocumentVersion = "v1"

// Document is the interchange form of a grammar.
// It is what the "recent" grammar file and the grammar_show tool emit.
type Document struct {
	// Version of the interchange format.
	Version string `json:"version"`
	// Items in grammar order.
	Items []LexicalItem `json:"items"`
}

// LexicalItem is one `morph :: features` statement.
type LexicalItem struct {
	// Morph is the phonological form.
	Morph string `json:"morph"`
	// Bundle lists features in derivation order.
	Bundle []Feature `json:"bundle"`
}

// Feature is a single classified token of a bundle.
type Feature struct {
	Raw string `json:"raw"`
	ID  string `json:"id"`
	// Rel is one of the nine relation tags (LMerge, RMerge, LMergeInter,
	// RMergeInter, LMergeHead, RMergeHead, MinusMove, PlusMove, State).
	Rel string `json:"rel"`
}

// Example is a saved grammar in the example collection.
type Example struct {
	Title   string   `json:"title"`
	Lang    string   `json:"lang"`
	Grammar []string `json:"grammar"`
}
