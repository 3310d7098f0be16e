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
	"container/heap"
	"sort"
)

// TopK stores the K elements with the maximal scores. The heap keeps time and
// memory complexity low in top-K searching. Equal scores are resolved in favor
// of the lower id, so the selection is deterministic.
type TopK struct {
	Ids    []int32   // store element ids
	Scores []float32 // store scores
	K      int       // the size of the heap
}

// NewTopK creates a TopK heap.
func NewTopK(k int) *TopK {
	topK := new(TopK)
	topK.Ids = make([]int32, 0, k)
	topK.Scores = make([]float32, 0, k)
	topK.K = k
	return topK
}

// Less puts the weakest element (lowest score, then highest id) at the root.
// It is a method of heap.Interface.
func (topK *TopK) Less(i, j int) bool {
	if topK.Scores[i] != topK.Scores[j] {
		return topK.Scores[i] < topK.Scores[j]
	}
	return topK.Ids[i] > topK.Ids[j]
}

// Swap the i-th item with the j-th item. It is a method of heap.Interface.
func (topK *TopK) Swap(i, j int) {
	topK.Ids[i], topK.Ids[j] = topK.Ids[j], topK.Ids[i]
	topK.Scores[i], topK.Scores[j] = topK.Scores[j], topK.Scores[i]
}

// Len returns the size of the heap. It is a method of heap.Interface.
func (topK *TopK) Len() int {
	return len(topK.Ids)
}

// _HeapItem is designed for heap.Interface to pass elements.
type _HeapItem struct {
	Id    int32
	Score float32
}

// Push a new item into the heap. It is a method of heap.Interface.
func (topK *TopK) Push(x interface{}) {
	item := x.(_HeapItem)
	topK.Ids = append(topK.Ids, item.Id)
	topK.Scores = append(topK.Scores, item.Score)
}

// Pop the weakest item from the heap. It is a method of heap.Interface.
func (topK *TopK) Pop() interface{} {
	n := topK.Len()
	item := _HeapItem{Id: topK.Ids[n-1], Score: topK.Scores[n-1]}
	topK.Ids = topK.Ids[:n-1]
	topK.Scores = topK.Scores[:n-1]
	return item
}

// Add a new element to the heap, evicting the weakest element when full.
func (topK *TopK) Add(id int32, score float32) {
	if topK.Len() < topK.K {
		heap.Push(topK, _HeapItem{Id: id, Score: score})
		return
	}
	if score > topK.Scores[0] || (score == topK.Scores[0] && id < topK.Ids[0]) {
		heap.Pop(topK)
		heap.Push(topK, _HeapItem{Id: id, Score: score})
	}
}

// Sorted returns the kept elements ordered by score descending, ties broken
// by the lower id.
func (topK *TopK) Sorted() ([]int32, []float32) {
	ids := make([]int32, len(topK.Ids))
	scores := make([]float32, len(topK.Scores))
	copy(ids, topK.Ids)
	copy(scores, topK.Scores)
	indices := make([]int, len(ids))
	for i := range indices {
		indices[i] = i
	}
	sort.Slice(indices, func(i, j int) bool {
		a, b := indices[i], indices[j]
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		return ids[a] < ids[b]
	})
	sortedIds := make([]int32, len(ids))
	sortedScores := make([]float32, len(scores))
	for i, index := range indices {
		sortedIds[i] = ids[index]
		sortedScores[i] = scores[index]
	}
	return sortedIds, sortedScores
}
