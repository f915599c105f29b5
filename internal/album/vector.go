package album

import "math"

// normalize returns a unit-norm copy of the vector. A zero vector is
// returned unchanged.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	out := make([]float32, len(vec))
	if sum == 0 {
		copy(out, vec)
		return out
	}
	norm := float32(math.Sqrt(sum))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}

// cosineSimilarity computes the cosine similarity of two equal-length
// vectors. Either vector being zero yields 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// CompositeVector builds the photo index vector from its parts. Exposed for
// offline index rebuilds.
func CompositeVector(visual, semantic []float32, semanticDim int) []float32 {
	return composite(visual, semantic, semanticDim)
}

// composite builds the photo index vector: normalized visual part followed
// by the semantic part. A nil semantic part becomes zeros, so un-enriched
// photos still match purely visual queries.
func composite(visual, semantic []float32, semanticDim int) []float32 {
	out := make([]float32, len(visual)+semanticDim)
	copy(out, normalize(visual))
	if semantic != nil {
		copy(out[len(visual):], normalize(semantic))
	}
	return out
}
