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
	"testing"

	"github.com/chewxy/math32"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

const simEpsilon = 1e-5

func sparse(pairs ...lo.Tuple2[int32, float32]) SparseVector {
	return pairs
}

func pair(index int32, value float32) lo.Tuple2[int32, float32] {
	return lo.Tuple2[int32, float32]{A: index, B: value}
}

func TestForIntersection(t *testing.T) {
	a := sparse(pair(1, 1), pair(2, 2), pair(5, 5))
	b := sparse(pair(2, 4), pair(3, 3), pair(5, 10))
	var indices []int32
	ForIntersection(a, b, func(index int32, x, y float32) {
		indices = append(indices, index)
		assert.Equal(t, 2*x, y)
	})
	assert.Equal(t, []int32{2, 5}, indices)
}

func TestCosineSimilarity(t *testing.T) {
	// proportional co-ratings have cosine similarity 1
	a := sparse(pair(1, 1), pair(2, 2))
	b := sparse(pair(1, 2), pair(2, 4))
	assert.InDelta(t, 1.0, CosineSimilarity(a, b), simEpsilon)
	// no co-rating yields NaN
	c := sparse(pair(9, 3))
	assert.True(t, math32.IsNaN(CosineSimilarity(a, c)))
}

func TestMSDSimilarity(t *testing.T) {
	a := sparse(pair(1, 3), pair(2, 5))
	b := sparse(pair(1, 3), pair(2, 5))
	assert.InDelta(t, 1.0, MSDSimilarity(a, b), simEpsilon)
	c := sparse(pair(1, 1), pair(2, 3))
	// mean squared difference is 4, similarity 1/5
	assert.InDelta(t, 0.2, MSDSimilarity(a, c), simEpsilon)
}

func TestPearsonSimilarity(t *testing.T) {
	a := sparse(pair(1, 1), pair(2, 2), pair(3, 3))
	b := sparse(pair(1, 2), pair(2, 4), pair(3, 6))
	assert.InDelta(t, 1.0, PearsonSimilarity(a, b), simEpsilon)
	// anti-correlated vectors still yield a positive coefficient
	c := sparse(pair(1, 3), pair(2, 2), pair(3, 1))
	assert.InDelta(t, 1.0, PearsonSimilarity(a, c), simEpsilon)
}

func TestMean(t *testing.T) {
	assert.Equal(t, float32(2), Mean(sparse(pair(1, 1), pair(2, 3))))
	assert.Equal(t, float32(0), Mean(nil))
}
