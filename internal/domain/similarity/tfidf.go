// Package similarity vectorizes normalized post text and groups posts
// into near-duplicate clusters.
package similarity

import (
	"math"
	"strings"
)

// vector is a sparse L2-normalized TF-IDF vector indexed by term id.
type vector map[int]float64

// vectorize builds one TF-IDF vector per document over unigrams and
// bigrams with a document-frequency floor of 1. IDF uses the standard
// smoothing ln((1+n)/(1+df)) + 1 and vectors are L2-normalized, so
// cosine similarity reduces to a sparse dot product.
//
// A document with no terms yields an empty vector; its similarity to
// everything, itself included, is defined as 0.
func vectorize(docs []string) []vector {
	// terms maps each term to a dense id; docTerms holds raw counts per doc.
	terms := make(map[string]int)
	docTerms := make([]map[int]int, len(docs))
	df := make(map[int]int)

	for i, doc := range docs {
		counts := make(map[int]int)
		for _, term := range ngrams(doc) {
			id, ok := terms[term]
			if !ok {
				id = len(terms)
				terms[term] = id
			}
			counts[id]++
		}
		docTerms[i] = counts
		for id := range counts {
			df[id]++
		}
	}

	n := float64(len(docs))
	idf := make([]float64, len(terms))
	for id, freq := range df {
		idf[id] = math.Log((1+n)/(1+float64(freq))) + 1
	}

	vectors := make([]vector, len(docs))
	for i, counts := range docTerms {
		v := make(vector, len(counts))
		var norm float64
		for id, tf := range counts {
			w := float64(tf) * idf[id]
			v[id] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for id := range v {
				v[id] /= norm
			}
		}
		vectors[i] = v
	}
	return vectors
}

// ngrams returns the unigrams and bigrams of a space-joined token stream.
func ngrams(doc string) []string {
	tokens := strings.Fields(doc)
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, 2*len(tokens)-1)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

// cosine returns the dot product of two L2-normalized sparse vectors.
// Empty vectors have similarity 0 to everything.
func cosine(a, b vector) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	var dot float64
	for id, w := range a {
		if bw, ok := b[id]; ok {
			dot += w * bw
		}
	}
	return dot
}
