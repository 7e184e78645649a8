package domain

import (
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/unicode/norm"
)

const (
	// FingerprintDimensions is how many leading embedding dimensions feed a fingerprint.
	FingerprintDimensions = 20

	// FingerprintPrecision is the number of decimals each dimension is rounded to.
	FingerprintPrecision = 4
)

// VectorKeyFunc derives a cache key from an embedding.
type VectorKeyFunc func(vector []float64) string

// NormalizeQuestion trims the question, applies NFKC and collapses runs of whitespace.
// Case is preserved: embeddings are case-sensitive upstream.
func NormalizeQuestion(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	return strings.Join(strings.Fields(norm.NFKC.String(text)), " ")
}

// TextKey hashes normalized text into an embedding cache key.
func TextKey(text string) string {
	return "emb:" + strconv.FormatUint(xxhash.Sum64String(NormalizeQuestion(text)), 16)
}

// VectorFingerprint is the default VectorKeyFunc. It hashes the first
// FingerprintDimensions values, each rounded to FingerprintPrecision decimals, so
// that numerically jittered repeats of one question map to the same key. Distinct
// vectors sharing that prefix also collide; search results tolerate that.
func VectorFingerprint(vector []float64) string {
	n := min(len(vector), FingerprintDimensions)

	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(roundDimension(vector[i]), 'f', FingerprintPrecision, 64))
	}

	return "vec:" + strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}

func roundDimension(v float64) float64 {
	scale := math.Pow10(FingerprintPrecision)
	r := math.Round(v*scale) / scale
	if r == 0 {
		return 0 // drop the sign of negative zero
	}
	return r
}

// FullVectorKey hashes every dimension at full precision. It is an exact-match
// alternative to VectorFingerprint.
func FullVectorKey(vector []float64) string {
	h := xxhash.New()
	for _, v := range vector {
		_, _ = h.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		_, _ = h.WriteString(",")
	}
	return "vecfull:" + strconv.FormatUint(h.Sum64(), 16)
}
