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
	"context"
	"time"

	"github.com/cfbench/cfbench/base"
	"github.com/cfbench/cfbench/base/log"
	"github.com/cfbench/cfbench/base/parallel"
	"github.com/cfbench/cfbench/dataset"
	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// KNN predicts a rating as the similarity-weighted average over the k most
// similar users (or items, depending on Type). Queries without usable
// neighbors fall back to a damped baseline fitted on the same training set.
type KNN struct {
	BaseModel
	// Hyper parameters
	kind           string
	k              int
	similarityName string
	similarity     base.FuncSimilarity
	// Model parameters
	matrix      [][]float32
	userRatings [][]lo.Tuple2[int32, float32]
	itemRatings [][]lo.Tuple2[int32, float32]
	fallback    *DampedBaseline
	userDict    *dataset.FreqDict
	itemDict    *dataset.FreqDict
}

// NewKNN creates a KNN estimator. Params:
//
//	Type       - The neighborhood axis, "user" or "item". Default is "item".
//	K          - The number of neighbors. Default is 40.
//	Similarity - "cosine", "pearson" or "msd". Default is "cosine".
//	DampingUser, DampingItem - forwarded to the fallback baseline.
func NewKNN(params Params) (*KNN, error) {
	knn := new(KNN)
	knn.SetParams(params)
	if knn.k <= 0 {
		return nil, errors.NotValidf("neighbor count %d", knn.k)
	}
	if knn.kind != TypeUser && knn.kind != TypeItem {
		return nil, errors.NotValidf("type %q", knn.kind)
	}
	if knn.similarity == nil {
		return nil, errors.NotValidf("similarity %q", knn.similarityName)
	}
	fallback, err := NewDampedBaseline(params)
	if err != nil {
		return nil, errors.Trace(err)
	}
	knn.fallback = fallback
	return knn, nil
}

// SetParams sets hyper-parameters of the KNN estimator.
func (knn *KNN) SetParams(params Params) {
	knn.BaseModel.SetParams(params)
	knn.kind = knn.Params.GetString(Type, TypeItem)
	knn.k = knn.Params.GetInt(K, 40)
	knn.similarityName = knn.Params.GetString(Similarity, SimilarityCosine)
	switch knn.similarityName {
	case SimilarityCosine:
		knn.similarity = base.CosineSimilarity
	case SimilarityPearson:
		knn.similarity = base.PearsonSimilarity
	case SimilarityMSD:
		knn.similarity = base.MSDSimilarity
	default:
		knn.similarity = nil
	}
}

func (knn *KNN) GetParamsGrid() ParamsGrid {
	return ParamsGrid{
		Type:       []interface{}{TypeUser, TypeItem},
		K:          []interface{}{10, 20, 40, 80},
		Similarity: []interface{}{SimilarityCosine, SimilarityPearson, SimilarityMSD},
	}
}

// Fit the KNN estimator. Builds the pairwise similarity matrix over users
// (or items) from training-fold co-ratings.
func (knn *KNN) Fit(ctx context.Context, trainSet *dataset.Dataset, config *FitConfig) error {
	if config == nil {
		config = NewFitConfig()
	}
	log.Logger().Info("fit knn",
		zap.Int("train_set_size", trainSet.Count()),
		zap.Any("params", knn.GetParams()),
		zap.Any("config", config))
	knn.userRatings = trainSet.GetUserRatings()
	knn.itemRatings = trainSet.GetItemRatings()
	knn.userDict = trainSet.GetUserDict()
	knn.itemDict = trainSet.GetItemDict()
	if err := knn.fallback.Fit(ctx, trainSet, config); err != nil {
		return errors.Trace(err)
	}
	vectors := knn.itemRatings
	if knn.kind == TypeUser {
		vectors = knn.userRatings
	}
	// Pairwise similarity
	fitStart := time.Now()
	knn.matrix = make([][]float32, len(vectors))
	err := parallel.Parallel(ctx, len(vectors), config.Jobs, func(_, i int) error {
		knn.matrix[i] = make([]float32, len(vectors))
		for j := range vectors {
			if i == j {
				continue
			}
			score := knn.similarity(vectors[i], vectors[j])
			if !math32.IsNaN(score) {
				knn.matrix[i][j] = score
			}
		}
		return nil
	})
	if err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("fit knn complete",
		zap.String("fit_time", time.Since(fitStart).String()))
	return nil
}

// Predict by the KNN estimator.
func (knn *KNN) Predict(userId, itemId string) float32 {
	userIndex := knn.userDict.Id(userId)
	itemIndex := knn.itemDict.Id(itemId)
	if userIndex < 0 || itemIndex < 0 {
		return knn.fallback.internalPredict(userIndex, itemIndex)
	}
	var target int32
	var candidates []lo.Tuple2[int32, float32]
	if knn.kind == TypeUser {
		// the k most similar users to userId that rated itemId
		target = userIndex
		candidates = knn.itemRatings[itemIndex]
	} else {
		// the k most similar items to itemId that userId rated
		target = itemIndex
		candidates = knn.userRatings[userIndex]
	}
	values := make(map[int32]float32, len(candidates))
	topK := base.NewTopK(knn.k)
	for _, candidate := range candidates {
		if candidate.A == target {
			continue
		}
		values[candidate.A] = candidate.B
		topK.Add(candidate.A, knn.matrix[target][candidate.A])
	}
	ids, weights := topK.Sorted()
	sum, weightSum := float32(0), float32(0)
	for i, id := range ids {
		sum += weights[i] * values[id]
		weightSum += weights[i]
	}
	if weightSum <= 0 {
		// degenerate neighborhood
		return knn.fallback.internalPredict(userIndex, itemIndex)
	}
	return sum / weightSum
}

func (knn *KNN) Clear() {
	knn.matrix = nil
	knn.userRatings = nil
	knn.itemRatings = nil
	knn.userDict = nil
	knn.itemDict = nil
	if knn.fallback != nil {
		knn.fallback.Clear()
	}
}
