// Package chunker divides plain-text documents into chunks for embedding and search.
//
// Chunks are cut along paragraph boundaries so each embedding covers a
// coherent slice of the document, and chunk order matches document order
// so neighboring chunks can be stitched back together for previews.
//
// # Basic Usage
//
//	c := chunker.New()
//	chunks := c.Chunk(documentText)
//	for i, chunk := range chunks {
//	    fmt.Printf("Chunk %d: %d tokens\n", i, chunker.EstimateTokenCount(chunk))
//	}
//
// # Chunking Strategy
//
// Paragraphs (blank-line separated) are packed together until the token
// ceiling is reached. A paragraph that alone exceeds the ceiling is split
// at sentence boundaries, with a hard character cut as the last resort for
// degenerate input with no punctuation.
//
// Token estimation uses a simple heuristic (chars/4). For more accuracy,
// use a proper tokenizer library.
package chunker
