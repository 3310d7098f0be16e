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

package model

import (
	"github.com/cfbench/cfbench/base"
	"github.com/cfbench/cfbench/dataset"
)

// Splitter splits a dataset into train and test folds.
type Splitter func(set *dataset.Dataset, seed int64) (trainFolds, testFolds []*dataset.Dataset)

// NewKFoldSplitter creates a k-fold splitter. Ratings are shuffled by a
// seeded permutation and partitioned into k disjoint held-out folds whose
// union is the full set; each train fold is the complement of its test fold.
func NewKFoldSplitter(k int) Splitter {
	return func(set *dataset.Dataset, seed int64) (trainFolds, testFolds []*dataset.Dataset) {
		trainFolds = make([]*dataset.Dataset, k)
		testFolds = make([]*dataset.Dataset, k)
		if set == nil {
			return
		}
		rng := base.NewRandomGenerator(seed)
		perm := rng.Perm(set.Count())
		foldSize := set.Count() / k
		begin, end := 0, 0
		for i := 0; i < k; i++ {
			end += foldSize
			if i < set.Count()%k {
				end++
			}
			testFolds[i] = set.SubSet(perm[begin:end])
			trainIndices := make([]int, 0, begin+len(perm)-end)
			trainIndices = append(trainIndices, perm[:begin]...)
			trainIndices = append(trainIndices, perm[end:]...)
			trainFolds[i] = set.SubSet(trainIndices)
			begin = end
		}
		return trainFolds, testFolds
	}
}

// NewRatioSplitter creates a splitter holding out a ratio of ratings,
// repeated with a fresh shuffle each time.
func NewRatioSplitter(repeat int, testRatio float64) Splitter {
	return func(set *dataset.Dataset, seed int64) (trainFolds, testFolds []*dataset.Dataset) {
		trainFolds = make([]*dataset.Dataset, repeat)
		testFolds = make([]*dataset.Dataset, repeat)
		if set == nil {
			return
		}
		rng := base.NewRandomGenerator(seed)
		testSize := int(float64(set.Count()) * testRatio)
		for i := 0; i < repeat; i++ {
			perm := rng.Perm(set.Count())
			testFolds[i] = set.SubSet(perm[:testSize])
			trainFolds[i] = set.SubSet(perm[testSize:])
		}
		return trainFolds, testFolds
	}
}
