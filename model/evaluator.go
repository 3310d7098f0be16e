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
	"sort"

	"github.com/cfbench/cfbench/dataset"
	"github.com/chewxy/math32"
)

// Scorer evaluates a fitted estimator on a held-out set.
type Scorer func(estimator Model, testSet *dataset.Dataset) float32

// MAE is the mean of absolute differences between predictions and actual
// ratings over the held-out set.
func MAE(estimator Model, testSet *dataset.Dataset) float32 {
	if testSet.Count() == 0 {
		return 0
	}
	sum := float32(0)
	for _, r := range testSet.GetRatings() {
		sum += math32.Abs(estimator.Predict(r.UserId, r.ItemId) - r.Value)
	}
	return sum / float32(testSet.Count())
}

// RMSE is the root of the mean of squared differences between predictions
// and actual ratings over the held-out set.
func RMSE(estimator Model, testSet *dataset.Dataset) float32 {
	if testSet.Count() == 0 {
		return 0
	}
	sum := float32(0)
	for _, r := range testSet.GetRatings() {
		diff := estimator.Predict(r.UserId, r.ItemId) - r.Value
		sum += diff * diff
	}
	return math32.Sqrt(sum / float32(testSet.Count()))
}

// NewNDCG creates a Normalized Discounted Cumulative Gain scorer over the
// top k ranked predictions. For every user with at least one held-out
// rating, the held-out items are ranked by predicted score descending and
// scored against the ideal ranking by actual rating:
//
//	DCG@k  = \sum_{rank=1}^{k} rel_{rank} / \log_2(rank+1)
//	NDCG@k = DCG@k / IDCG@k
//
// Users with a zero ideal gain are excluded. Returns the mean over users.
func NewNDCG(k int) Scorer {
	return func(estimator Model, testSet *dataset.Dataset) float32 {
		userDict := testSet.GetUserDict()
		itemDict := testSet.GetItemDict()
		sum, count := float32(0), float32(0)
		for userIndex, ratings := range testSet.GetUserRatings() {
			if len(ratings) == 0 {
				continue
			}
			userId, _ := userDict.String(int32(userIndex))
			predicted := make([]float32, len(ratings))
			for i, r := range ratings {
				itemId, _ := itemDict.String(r.A)
				predicted[i] = estimator.Predict(userId, itemId)
			}
			// rank held-out items by predicted score, ties by lower item index
			rank := make([]int, len(ratings))
			for i := range rank {
				rank[i] = i
			}
			sort.Slice(rank, func(i, j int) bool {
				a, b := rank[i], rank[j]
				if predicted[a] != predicted[b] {
					return predicted[a] > predicted[b]
				}
				return ratings[a].A < ratings[b].A
			})
			dcg := float32(0)
			for position, i := range rank {
				if position >= k {
					break
				}
				dcg += ratings[i].B / math32.Log2(float32(position)+2)
			}
			// ideal ranking by actual rating
			ideal := make([]int, len(ratings))
			for i := range ideal {
				ideal[i] = i
			}
			sort.Slice(ideal, func(i, j int) bool {
				a, b := ideal[i], ideal[j]
				if ratings[a].B != ratings[b].B {
					return ratings[a].B > ratings[b].B
				}
				return ratings[a].A < ratings[b].A
			})
			idcg := float32(0)
			for position, i := range ideal {
				if position >= k {
					break
				}
				idcg += ratings[i].B / math32.Log2(float32(position)+2)
			}
			if idcg == 0 {
				continue
			}
			sum += dcg / idcg
			count++
		}
		if count == 0 {
			return 0
		}
		return sum / count
	}
}
