package knowledge

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// CosineSimilarity computes dot(a,b) / (|a| * |b|).
// Returns 0 when either norm is zero or the lengths differ.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// Normalize scales v to unit length in place. Zero vectors are left untouched.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1.0 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

// Retrieve ranks every embedding against the query by cosine similarity and
// returns the top k. Ties keep snapshot order.
func Retrieve(query []float32, chunks []Chunk, embeddings [][]float32, k int) []Match {
	n := len(embeddings)
	if len(chunks) < n {
		n = len(chunks)
	}

	results := make([]Match, n)
	for i := 0; i < n; i++ {
		score := CosineSimilarity(query, embeddings[i])
		results[i] = Match{
			Index:      i,
			Chunk:      chunks[i],
			Score:      score,
			Similarity: score,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k >= 0 && k < len(results) {
		results = results[:k]
	}
	return results
}

// Rerank boosts each match by weight times the number of distinct query
// tokens (longer than two characters) found in the chunk, re-sorts by the
// combined score and truncates to k.
func Rerank(matches []Match, query string, weight float64, k int) []Match {
	tokens := QueryTokens(query)

	out := make([]Match, len(matches))
	for i, m := range matches {
		haystack := strings.ToLower(m.Chunk.Metadata.Title + "\n" + m.Chunk.Text)
		hits := 0
		for _, tok := range tokens {
			if strings.Contains(haystack, tok) {
				hits++
			}
		}
		m.Score = m.Similarity + float32(weight*float64(hits))
		out[i] = m
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	if k >= 0 && k < len(out) {
		out = out[:k]
	}
	return out
}

// QueryTokens lowercases the query and returns its distinct tokens longer than two characters.
func QueryTokens(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) <= 2 || seen[f] {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	return tokens
}
