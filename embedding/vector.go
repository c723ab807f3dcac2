package embedding

import "math"

// Dot returns the inner product over the common prefix of a and b.
func Dot(a, b []float32) float32 {
	n := min(len(a), len(b))
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum))
}

// Normalize returns a unit-length copy of v. A zero vector stays zero.
func Normalize(v []float32) []float32 {
	result := make([]float32, len(v))
	magnitude := Norm(v)
	if magnitude == 0 {
		return result
	}
	for i, x := range v {
		result[i] = x / magnitude
	}
	return result
}

// Similarity is the cosine similarity of a and b. It is 0 when the lengths
// differ or either vector has zero norm.
func Similarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return float64(Dot(a, b)) / (float64(na) * float64(nb))
}
