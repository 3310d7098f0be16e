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

	"github.com/stretchr/testify/assert"
)

func TestTopK(t *testing.T) {
	topK := NewTopK(3)
	topK.Add(10, 0.3)
	topK.Add(20, 0.9)
	topK.Add(30, 0.1)
	topK.Add(40, 0.5)
	topK.Add(50, 0.2)
	ids, scores := topK.Sorted()
	assert.Equal(t, []int32{20, 40, 10}, ids)
	assert.Equal(t, []float32{0.9, 0.5, 0.3}, scores)
}

func TestTopK_Partial(t *testing.T) {
	topK := NewTopK(10)
	topK.Add(1, 0.2)
	topK.Add(2, 0.4)
	ids, scores := topK.Sorted()
	assert.Equal(t, []int32{2, 1}, ids)
	assert.Equal(t, []float32{0.4, 0.2}, scores)
}

func TestTopK_Ties(t *testing.T) {
	// equal scores keep the lower id
	topK := NewTopK(2)
	topK.Add(30, 0.5)
	topK.Add(10, 0.5)
	topK.Add(20, 0.5)
	ids, scores := topK.Sorted()
	assert.Equal(t, []int32{10, 20}, ids)
	assert.Equal(t, []float32{0.5, 0.5}, scores)
}
