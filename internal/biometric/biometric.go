// Package biometric compares live biometric samples against stored
// references.
//
// Embedding extraction from raw images is an external capability; this
// package only consumes opaque encoded embeddings and produces a match
// verdict with a similarity score. The stored encoding is base64 over
// little-endian float32 values.
package biometric

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// Comparator compares a live sample against a stored reference.
//
// Compare returns a match verdict and a similarity score in [0,1].
// A non-nil error means the comparison itself could not run; callers
// must surface that as "verification unavailable", never as a
// no-match denial.
type Comparator interface {
	Compare(ctx context.Context, sample, reference string) (match bool, similarity float64, err error)
}

// CosineComparator scores embeddings by cosine similarity against a
// fixed acceptance threshold.
type CosineComparator struct {
	threshold float64
}

// NewCosineComparator builds a comparator accepting similarities at or
// above threshold.
func NewCosineComparator(threshold float64) *CosineComparator {
	return &CosineComparator{threshold: threshold}
}

// Compare implements Comparator.
func (c *CosineComparator) Compare(_ context.Context, sample, reference string) (bool, float64, error) {
	live, err := DecodeEmbedding(sample)
	if err != nil {
		return false, 0, fmt.Errorf("decode sample embedding: %w", err)
	}
	stored, err := DecodeEmbedding(reference)
	if err != nil {
		return false, 0, fmt.Errorf("decode reference embedding: %w", err)
	}

	similarity, err := cosineSimilarity(live, stored)
	if err != nil {
		return false, 0, err
	}
	return similarity >= c.threshold, similarity, nil
}

func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("empty embedding")
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("zero-norm embedding")
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// EncodeEmbedding serializes an embedding to its stored string form.
func EncodeEmbedding(values []float32) string {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeEmbedding parses the stored string form back into float32s.
func DecodeEmbedding(s string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("embedding byte length %d not a multiple of 4", len(raw))
	}
	values := make([]float32, len(raw)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return values, nil
}
