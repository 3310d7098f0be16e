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

// Package dataset holds the immutable in-memory rating table consumed by
// every estimator.
package dataset

import (
	"sort"
	"time"

	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Rating is a single (user, item, value) observation. The timestamp is
// optional and not used by any estimator.
type Rating struct {
	UserId    string
	ItemId    string
	Value     float32
	Timestamp time.Time
}

// Dataset is an immutable snapshot of a rating table. Identifiers are mapped
// to dense indices on construction. Ratings are kept in a canonical order
// (sorted by user id, then item id) so that dense indices and every seeded
// fit are independent of the order rows were supplied in.
type Dataset struct {
	userDict *FreqDict
	itemDict *FreqDict
	ratings  []Rating
	users    []int32
	items    []int32
	values   []float32
	// ratings grouped per dense index, sorted by the opposite index
	userRatings [][]lo.Tuple2[int32, float32]
	itemRatings [][]lo.Tuple2[int32, float32]
	mean        float32
	min, max    float32
}

// NewDataset validates ratings and builds a Dataset. Every value must lie in
// [minRating, maxRating]; the first malformed row aborts the load with a
// NotValid error.
func NewDataset(ratings []Rating, minRating, maxRating float32) (*Dataset, error) {
	if minRating >= maxRating {
		return nil, errors.NotValidf("rating bounds [%v, %v]", minRating, maxRating)
	}
	for _, r := range ratings {
		if math32.IsNaN(r.Value) || r.Value < minRating || r.Value > maxRating {
			return nil, errors.NotValidf("rating (%s, %s): value %v outside [%v, %v]",
				r.UserId, r.ItemId, r.Value, minRating, maxRating)
		}
	}
	sorted := make([]Rating, len(ratings))
	copy(sorted, ratings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].UserId != sorted[j].UserId {
			return sorted[i].UserId < sorted[j].UserId
		}
		return sorted[i].ItemId < sorted[j].ItemId
	})
	set := &Dataset{
		userDict: NewFreqDict(),
		itemDict: NewFreqDict(),
		ratings:  sorted,
		users:    make([]int32, len(sorted)),
		items:    make([]int32, len(sorted)),
		values:   make([]float32, len(sorted)),
		min:      minRating,
		max:      maxRating,
	}
	for i, r := range sorted {
		set.users[i] = set.userDict.Add(r.UserId)
		set.items[i] = set.itemDict.Add(r.ItemId)
		set.values[i] = r.Value
	}
	set.group()
	return set, nil
}

func (set *Dataset) group() {
	set.userRatings = make([][]lo.Tuple2[int32, float32], set.userDict.Count())
	set.itemRatings = make([][]lo.Tuple2[int32, float32], set.itemDict.Count())
	sum := float64(0)
	for i := range set.values {
		u, it, v := set.users[i], set.items[i], set.values[i]
		set.userRatings[u] = append(set.userRatings[u], lo.Tuple2[int32, float32]{A: it, B: v})
		set.itemRatings[it] = append(set.itemRatings[it], lo.Tuple2[int32, float32]{A: u, B: v})
		sum += float64(v)
	}
	for _, ratings := range set.userRatings {
		sortByIndex(ratings)
	}
	for _, ratings := range set.itemRatings {
		sortByIndex(ratings)
	}
	if len(set.values) > 0 {
		set.mean = float32(sum / float64(len(set.values)))
	}
}

func sortByIndex(ratings []lo.Tuple2[int32, float32]) {
	sort.Slice(ratings, func(i, j int) bool {
		return ratings[i].A < ratings[j].A
	})
}

// Count returns the number of ratings.
func (set *Dataset) Count() int {
	return len(set.values)
}

// CountUsers returns the number of distinct users known to the dictionary.
func (set *Dataset) CountUsers() int {
	return int(set.userDict.Count())
}

// CountItems returns the number of distinct items known to the dictionary.
func (set *Dataset) CountItems() int {
	return int(set.itemDict.Count())
}

// Mean returns the mean of all rating values, or zero for an empty set.
func (set *Dataset) Mean() float32 {
	return set.mean
}

// Min returns the lower rating bound.
func (set *Dataset) Min() float32 {
	return set.min
}

// Max returns the upper rating bound.
func (set *Dataset) Max() float32 {
	return set.max
}

// Get returns the i-th rating as dense indices and value.
func (set *Dataset) Get(i int) (userIndex, itemIndex int32, value float32) {
	return set.users[i], set.items[i], set.values[i]
}

// GetRatings returns the validated ratings in canonical order.
func (set *Dataset) GetRatings() []Rating {
	return set.ratings
}

// GetUserRatings returns, for every user index, that user's (item, value)
// pairs sorted by item index.
func (set *Dataset) GetUserRatings() [][]lo.Tuple2[int32, float32] {
	return set.userRatings
}

// GetItemRatings returns, for every item index, that item's (user, value)
// pairs sorted by user index.
func (set *Dataset) GetItemRatings() [][]lo.Tuple2[int32, float32] {
	return set.itemRatings
}

// GetUserDict returns the user identifier dictionary.
func (set *Dataset) GetUserDict() *FreqDict {
	return set.userDict
}

// GetItemDict returns the item identifier dictionary.
func (set *Dataset) GetItemDict() *FreqDict {
	return set.itemDict
}

// SubSet creates a Dataset from a subset of ratings. The identifier
// dictionaries are shared with the parent so dense indices stay aligned
// across folds; users or items absent from the subset keep empty rating
// lists.
func (set *Dataset) SubSet(indices []int) *Dataset {
	sub := &Dataset{
		userDict: set.userDict,
		itemDict: set.itemDict,
		ratings:  make([]Rating, 0, len(indices)),
		users:    make([]int32, 0, len(indices)),
		items:    make([]int32, 0, len(indices)),
		values:   make([]float32, 0, len(indices)),
		min:      set.min,
		max:      set.max,
	}
	for _, i := range indices {
		sub.ratings = append(sub.ratings, set.ratings[i])
		sub.users = append(sub.users, set.users[i])
		sub.items = append(sub.items, set.items[i])
		sub.values = append(sub.values, set.values[i])
	}
	sub.group()
	return sub
}
