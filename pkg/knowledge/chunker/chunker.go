// Package chunker splits knowledge-base text into titled, tagged chunks.
package chunker

import (
	"regexp"
	"strings"

	"github.com/barekit/kbchat/pkg/knowledge"
	"github.com/barekit/kbchat/pkg/knowledge/schema"
)

// DefaultMaxChars is the size above which a section is split at sentence boundaries.
const DefaultMaxChars = 500

var (
	delimiterRe = regexp.MustCompile(`^\s*-{3,}\s*$`)
	sentenceRe  = regexp.MustCompile(`[^.!?]+[.!?]+`)
	dateRe      = regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{4}\b|\b\d{4}-\d{2}(?:-\d{2})?\b|\b(?:19|20)\d{2}\b`)
)

// Chunker turns raw text into chunks. Output is deterministic for a given
// input and configuration.
type Chunker struct {
	maxChars int
	profiles []Profile
}

// Option configures the Chunker.
type Option func(*Chunker)

// WithMaxChars sets the oversize threshold in characters.
func WithMaxChars(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxChars = n
		}
	}
}

// WithProfiles replaces the structured-record profiles.
func WithProfiles(profiles ...Profile) Option {
	return func(c *Chunker) {
		c.profiles = profiles
	}
}

// New creates a Chunker with the default profiles.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxChars: DefaultMaxChars,
		profiles: DefaultProfiles(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk splits text into chunks in document order.
func (c *Chunker) Chunk(text string) []knowledge.Chunk {
	var chunks []knowledge.Chunk
	for _, section := range splitSections(text) {
		chunks = append(chunks, c.chunkSection(section)...)
	}
	return chunks
}

// splitSections breaks text on blank lines and dash-run delimiter lines.
func splitSections(text string) [][]string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var sections [][]string
	var current []string
	flush := func() {
		if len(current) > 0 {
			sections = append(sections, current)
			current = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" || delimiterRe.MatchString(line) {
			flush()
			continue
		}
		current = append(current, strings.TrimSpace(line))
	}
	flush()

	return sections
}

func (c *Chunker) chunkSection(lines []string) []knowledge.Chunk {
	title := lines[0]
	body := strings.Join(lines[1:], "\n")
	text := body
	if text == "" {
		text = title
	}

	var tags []string
	matched := false
	for _, p := range c.profiles {
		rec := p.New()
		if n, err := schema.Decode(lines, rec); err != nil || n == 0 {
			continue
		}
		heading := rec.Heading()
		if heading == "" {
			continue
		}
		if p.Tag != "" {
			tags = appendUnique(tags, p.Tag)
		}
		if !matched {
			// record sections carry data on the first line, keep all of it
			matched = true
			title = heading
			text = strings.Join(lines, "\n")
		}
	}

	var explicit tagLine
	if n, _ := schema.Decode(lines, &explicit); n > 0 {
		for _, t := range explicit.Tags {
			tags = appendUnique(tags, strings.ToLower(t))
		}
	}

	pieces := []string{text}
	if len(text) > c.maxChars {
		pieces = c.split(text)
	}

	chunks := make([]knowledge.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		chunks = append(chunks, knowledge.Chunk{
			Text: piece,
			Metadata: knowledge.Metadata{
				Title: title,
				Tags:  copyStrings(tags),
				Dates: extractDates(piece),
			},
		})
	}
	return chunks
}

// split packs sentences into pieces of at most maxChars; sentences that are
// still too long are cut into word windows.
func (c *Chunker) split(text string) []string {
	var sentences []string
	end := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		sentences = append(sentences, text[loc[0]:loc[1]])
		end = loc[1]
	}
	if rest := strings.TrimSpace(text[end:]); rest != "" {
		sentences = append(sentences, rest)
	}

	var pieces []string
	var buf strings.Builder
	emit := func() {
		if buf.Len() > 0 {
			pieces = append(pieces, buf.String())
			buf.Reset()
		}
	}

	for _, s := range sentences {
		s = strings.Join(strings.Fields(s), " ")
		if s == "" {
			continue
		}
		if len(s) > c.maxChars {
			emit()
			pieces = append(pieces, windows(s, c.maxChars)...)
			continue
		}
		if buf.Len() > 0 && buf.Len()+1+len(s) > c.maxChars {
			emit()
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(s)
	}
	emit()

	return pieces
}

// windows cuts s into word-aligned windows of at most size bytes.
func windows(s string, size int) []string {
	var out []string
	var buf strings.Builder
	for _, word := range strings.Fields(s) {
		for len(word) > size {
			if buf.Len() > 0 {
				out = append(out, buf.String())
				buf.Reset()
			}
			cut := runeBoundary(word, size)
			out = append(out, word[:cut])
			word = word[cut:]
		}
		if buf.Len() > 0 && buf.Len()+1+len(word) > size {
			out = append(out, buf.String())
			buf.Reset()
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(word)
	}
	if buf.Len() > 0 {
		out = append(out, buf.String())
	}
	return out
}

// runeBoundary returns the largest index <= n that does not split a UTF-8 sequence.
func runeBoundary(s string, n int) int {
	for n > 0 && n < len(s) && s[n]&0xC0 == 0x80 {
		n--
	}
	if n == 0 {
		n = 1
		for n < len(s) && s[n]&0xC0 == 0x80 {
			n++
		}
	}
	return n
}

func extractDates(text string) []string {
	var dates []string
	for _, d := range dateRe.FindAllString(text, -1) {
		dates = appendUnique(dates, strings.Join(strings.Fields(d), " "))
	}
	return dates
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func copyStrings(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
