package rag

import (
	"fmt"
	"strings"

	"github.com/barekit/kbchat/pkg/knowledge"
)

// DefaultMaxContextTokens is the default context budget.
const DefaultMaxContextTokens = 1500

// Delimiter separates chunks in the assembled context.
const Delimiter = "\n\n---\n\n"

// Assembler concatenates ranked chunks into a context bounded by a token budget.
type Assembler struct {
	estimator TokenEstimator
	maxTokens int
}

// NewAssembler creates an Assembler. A non-positive maxTokens uses DefaultMaxContextTokens.
func NewAssembler(estimator TokenEstimator, maxTokens int) *Assembler {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxContextTokens
	}
	return &Assembler{estimator: estimator, maxTokens: maxTokens}
}

// Assembled is the context handed to the generator.
type Assembled struct {
	Text   string
	Tokens int
	// Used lists the matches that made it into Text, in order.
	Used []knowledge.Match
}

// Assemble adds matches in ranked order until the next one would exceed the
// budget. Whole trailing chunks are dropped; only when the first chunk alone is
// over budget is it cut at a word boundary. The estimate of the result never
// exceeds the budget.
func (a *Assembler) Assemble(matches []knowledge.Match) Assembled {
	var b strings.Builder
	var used []knowledge.Match

	for i, m := range matches {
		header := Header(i+1, m)
		block := header + "\n" + m.Chunk.Text

		candidate := block
		if b.Len() > 0 {
			candidate = b.String() + Delimiter + block
		}
		if a.estimator.Estimate(candidate) <= a.maxTokens {
			b.Reset()
			b.WriteString(candidate)
			used = append(used, m)
			continue
		}
		if len(used) == 0 {
			if cut := a.fitFirst(header, m.Chunk.Text); cut != "" {
				b.WriteString(cut)
				used = append(used, m)
			}
		}
		break
	}

	text := b.String()
	if a.estimator.Estimate(text) > a.maxTokens {
		text = a.estimator.Truncate(text, a.maxTokens)
	}
	return Assembled{Text: text, Tokens: a.estimator.Estimate(text), Used: used}
}

// fitFirst keeps the header and as much of the body as fits, or a cut of the
// header alone when even that is over budget.
func (a *Assembler) fitFirst(header, body string) string {
	remaining := a.maxTokens - a.estimator.Estimate(header)
	if remaining > 0 {
		if cut := a.estimator.Truncate(body, remaining); cut != "" {
			return header + "\n" + cut
		}
	}
	return a.estimator.Truncate(header+"\n"+body, a.maxTokens)
}

// Header labels a chunk with its rank, title, tags and score.
func Header(rank int, m knowledge.Match) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d]", rank)
	if m.Chunk.Metadata.Title != "" {
		b.WriteString(" " + m.Chunk.Metadata.Title)
	}
	if len(m.Chunk.Metadata.Tags) > 0 {
		fmt.Fprintf(&b, " (tags: %s)", strings.Join(m.Chunk.Metadata.Tags, ", "))
	}
	fmt.Fprintf(&b, " score=%.3f", m.Score)
	return b.String()
}
