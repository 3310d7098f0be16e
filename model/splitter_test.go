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
	"testing"

	"github.com/cfbench/cfbench/dataset"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ratingKeys(set *dataset.Dataset) mapset.Set[string] {
	keys := mapset.NewSet[string]()
	for _, r := range set.GetRatings() {
		keys.Add(r.UserId + ":" + r.ItemId)
	}
	return keys
}

func TestKFoldSplitter(t *testing.T) {
	set := newRatingSet(t)
	trainFolds, testFolds := NewKFoldSplitter(2)(set, 0)
	require.Len(t, trainFolds, 2)
	require.Len(t, testFolds, 2)
	all := ratingKeys(set)
	heldOut := mapset.NewSet[string]()
	for i := range testFolds {
		train := ratingKeys(trainFolds[i])
		test := ratingKeys(testFolds[i])
		assert.Equal(t, 2, test.Cardinality())
		assert.Equal(t, 2, train.Cardinality())
		// train and test folds partition the full set
		assert.Equal(t, 0, train.Intersect(test).Cardinality())
		assert.True(t, all.Equal(train.Union(test)))
		// held-out folds are pairwise disjoint
		assert.Equal(t, 0, heldOut.Intersect(test).Cardinality())
		heldOut = heldOut.Union(test)
	}
	assert.True(t, all.Equal(heldOut))
}

func TestKFoldSplitter_Remainder(t *testing.T) {
	set, err := dataset.NewDataset([]dataset.Rating{
		{UserId: "1", ItemId: "1", Value: 1},
		{UserId: "1", ItemId: "2", Value: 2},
		{UserId: "1", ItemId: "3", Value: 3},
		{UserId: "1", ItemId: "4", Value: 4},
		{UserId: "1", ItemId: "5", Value: 5},
	}, 1, 5)
	require.NoError(t, err)
	_, testFolds := NewKFoldSplitter(3)(set, 0)
	// 5 ratings over 3 folds: sizes 2, 2, 1
	assert.Equal(t, 2, testFolds[0].Count())
	assert.Equal(t, 2, testFolds[1].Count())
	assert.Equal(t, 1, testFolds[2].Count())
}

func TestKFoldSplitter_Seeded(t *testing.T) {
	set := newRatingSet(t)
	_, a := NewKFoldSplitter(2)(set, 42)
	_, b := NewKFoldSplitter(2)(set, 42)
	for i := range a {
		assert.Equal(t, a[i].GetRatings(), b[i].GetRatings())
	}
}

func TestRatioSplitter(t *testing.T) {
	set := newRatingSet(t)
	trainFolds, testFolds := NewRatioSplitter(3, 0.25)(set, 0)
	require.Len(t, trainFolds, 3)
	require.Len(t, testFolds, 3)
	all := ratingKeys(set)
	for i := range testFolds {
		assert.Equal(t, 1, testFolds[i].Count())
		assert.Equal(t, 3, trainFolds[i].Count())
		train := ratingKeys(trainFolds[i])
		test := ratingKeys(testFolds[i])
		assert.Equal(t, 0, train.Intersect(test).Cardinality())
		assert.True(t, all.Equal(train.Union(test)))
	}
}
