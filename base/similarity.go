// Copyright 2024 cfbench Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package base

import (
	"github.com/chewxy/math32"
	"github.com/samber/lo"
)

// SparseVector is a sparse rating vector: pairs of (index, value) sorted by
// index ascending.
type SparseVector = []lo.Tuple2[int32, float32]

// FuncSimilarity computes the similarity between a pair of sparse vectors.
// The result is NaN when the pair shares no co-rating.
type FuncSimilarity func(a, b SparseVector) float32

// ForIntersection iterates over the indices rated in both vectors.
func ForIntersection(a, b SparseVector, f func(index int32, a, b float32)) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].A < b[j].A:
			i++
		case a[i].A > b[j].A:
			j++
		default:
			f(a[i].A, a[i].B, b[j].B)
			i++
			j++
		}
	}
}

// Mean returns the mean value of a sparse vector.
func Mean(a SparseVector) float32 {
	if len(a) == 0 {
		return 0
	}
	sum := float32(0)
	for _, t := range a {
		sum += t.B
	}
	return sum / float32(len(a))
}

// CosineSimilarity computes the cosine similarity between a pair of vectors
// over their co-rated indices.
func CosineSimilarity(a, b SparseVector) float32 {
	m, n, l := float32(0), float32(0), float32(0)
	ForIntersection(a, b, func(_ int32, a, b float32) {
		m += a * a
		n += b * b
		l += a * b
	})
	return l / (math32.Sqrt(m) * math32.Sqrt(n))
}

// MSDSimilarity computes the Mean Squared Difference similarity between a
// pair of vectors.
func MSDSimilarity(a, b SparseVector) float32 {
	count, sum := float32(0), float32(0)
	ForIntersection(a, b, func(_ int32, a, b float32) {
		sum += (a - b) * (a - b)
		count++
	})
	return 1.0 / (sum/count + 1)
}

// PearsonSimilarity computes the absolute Pearson correlation coefficient
// between a pair of vectors.
func PearsonSimilarity(a, b SparseVector) float32 {
	meanA := Mean(a)
	meanB := Mean(b)
	// Mean-centered cosine
	m, n, l := float32(0), float32(0), float32(0)
	ForIntersection(a, b, func(_ int32, a, b float32) {
		ratingA := a - meanA
		ratingB := b - meanB
		m += ratingA * ratingA
		n += ratingB * ratingB
		l += ratingA * ratingB
	})
	return math32.Abs(l) / (math32.Sqrt(m) * math32.Sqrt(n))
}
