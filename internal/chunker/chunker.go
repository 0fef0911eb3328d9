package chunker

import (
	"strings"
)

const (
	// MaxTokensPerChunk is the target maximum token count per chunk
	MaxTokensPerChunk = 1000

	// TokensPerChar is the heuristic for estimating tokens (chars/4)
	TokensPerChar = 4
)

// Chunker splits plain-text documents into ordered content chunks
type Chunker struct {
	maxTokens int
}

// New creates a new Chunker instance
func New() *Chunker {
	return &Chunker{maxTokens: MaxTokensPerChunk}
}

// NewWithLimit creates a Chunker with a custom token ceiling per chunk
func NewWithLimit(maxTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = MaxTokensPerChunk
	}
	return &Chunker{maxTokens: maxTokens}
}

// Chunk splits content into chunks along paragraph boundaries. Adjacent
// paragraphs are packed into one chunk while the token estimate stays
// under the ceiling; a single paragraph over the ceiling is split at
// sentence boundaries. Chunk order follows document order.
func (c *Chunker) Chunk(content string) []string {
	content = normalize(content)
	if content == "" {
		return nil
	}

	paragraphs := splitParagraphs(content)

	chunks := make([]string, 0, len(paragraphs))
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, para := range paragraphs {
		if EstimateTokenCount(para) > c.maxTokens {
			// Oversized paragraph gets its own chunks
			flush()
			chunks = append(chunks, c.splitOversized(para)...)
			continue
		}

		joined := para
		if current.Len() > 0 {
			joined = current.String() + "\n\n" + para
		}
		if EstimateTokenCount(joined) > c.maxTokens {
			flush()
			current.WriteString(para)
			continue
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

// splitOversized breaks a paragraph that exceeds the ceiling into pieces,
// preferring sentence boundaries and falling back to a hard character cut.
func (c *Chunker) splitOversized(para string) []string {
	maxChars := c.maxTokens * TokensPerChar
	sentences := splitSentences(para)

	pieces := make([]string, 0, len(sentences))
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			pieces = append(pieces, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, sentence := range sentences {
		// A single runaway sentence is cut at the character limit
		for len(sentence) > maxChars {
			flush()
			pieces = append(pieces, strings.TrimSpace(sentence[:maxChars]))
			sentence = sentence[maxChars:]
		}
		if sentence == "" {
			continue
		}

		if current.Len()+len(sentence)+1 > maxChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}
	flush()

	return pieces
}

// normalize unifies line endings and trims outer whitespace
func normalize(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.TrimSpace(content)
}

// splitParagraphs splits on blank lines, dropping empty segments
func splitParagraphs(content string) []string {
	raw := strings.Split(content, "\n\n")
	paragraphs := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// splitSentences splits text on sentence-ending punctuation followed by
// whitespace. The split is approximate; good enough for chunk sizing.
func splitSentences(text string) []string {
	sentences := make([]string, 0)
	start := 0
	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
			if text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t' {
				sentence := strings.TrimSpace(text[start : i+1])
				if sentence != "" {
					sentences = append(sentences, sentence)
				}
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// EstimateTokenCount estimates the number of tokens in a string
func EstimateTokenCount(text string) int {
	return len(text) / TokensPerChar
}
