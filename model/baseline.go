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

	"github.com/cfbench/cfbench/base/log"
	"github.com/cfbench/cfbench/dataset"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// GlobalMean predicts every rating as the mean of the training set.
type GlobalMean struct {
	BaseModel
	mean float32
}

// NewGlobalMean creates a GlobalMean estimator.
func NewGlobalMean(params Params) *GlobalMean {
	m := new(GlobalMean)
	m.SetParams(params)
	return m
}

func (m *GlobalMean) GetParamsGrid() ParamsGrid {
	return ParamsGrid{}
}

// Fit the GlobalMean estimator.
func (m *GlobalMean) Fit(_ context.Context, trainSet *dataset.Dataset, _ *FitConfig) error {
	m.mean = trainSet.Mean()
	log.Logger().Info("fit global mean",
		zap.Int("train_set_size", trainSet.Count()),
		zap.Float32("mean", m.mean))
	return nil
}

// Predict returns the training mean for any query.
func (m *GlobalMean) Predict(_, _ string) float32 {
	return m.mean
}

func (m *GlobalMean) Clear() {
	m.mean = 0
}

// PerIDMean predicts a rating as the mean rating of the query's user (or
// item, depending on Type). Keys unseen in training fall back to the
// global mean.
type PerIDMean struct {
	BaseModel
	kind  string
	mean  float32
	means []float32
	dict  *dataset.FreqDict
}

// NewPerIDMean creates a PerIDMean estimator. Params:
//
//	Type - The grouping key, "user" or "item". Default is "item".
func NewPerIDMean(params Params) (*PerIDMean, error) {
	m := new(PerIDMean)
	m.SetParams(params)
	if m.kind != TypeUser && m.kind != TypeItem {
		return nil, errors.NotValidf("type %q", m.kind)
	}
	return m, nil
}

// SetParams sets hyper-parameters of the PerIDMean estimator.
func (m *PerIDMean) SetParams(params Params) {
	m.BaseModel.SetParams(params)
	m.kind = m.Params.GetString(Type, TypeItem)
}

func (m *PerIDMean) GetParamsGrid() ParamsGrid {
	return ParamsGrid{
		Type: []interface{}{TypeUser, TypeItem},
	}
}

// Fit the PerIDMean estimator.
func (m *PerIDMean) Fit(_ context.Context, trainSet *dataset.Dataset, _ *FitConfig) error {
	m.mean = trainSet.Mean()
	grouped := trainSet.GetItemRatings()
	m.dict = trainSet.GetItemDict()
	if m.kind == TypeUser {
		grouped = trainSet.GetUserRatings()
		m.dict = trainSet.GetUserDict()
	}
	m.means = make([]float32, len(grouped))
	for index, ratings := range grouped {
		if len(ratings) == 0 {
			// zero training ratings in this fold, fall back to the global mean
			m.means[index] = m.mean
			continue
		}
		sum := float32(0)
		for _, r := range ratings {
			sum += r.B
		}
		m.means[index] = sum / float32(len(ratings))
	}
	log.Logger().Info("fit per-id mean",
		zap.Int("train_set_size", trainSet.Count()),
		zap.String("type", m.kind),
		zap.Int("groups", len(m.means)))
	return nil
}

// Predict returns the group mean of a known key, or the global mean.
func (m *PerIDMean) Predict(userId, itemId string) float32 {
	key := itemId
	if m.kind == TypeUser {
		key = userId
	}
	index := m.dict.Id(key)
	if index < 0 {
		return m.mean
	}
	return m.means[index]
}

func (m *PerIDMean) Clear() {
	m.mean = 0
	m.means = nil
	m.dict = nil
}

// DampedBaseline predicts ratings as mu + b_u + b_i, where the per-user and
// per-item deviations are damped averages of residuals:
//
//	b_u = sum_{i in I_u} (r_ui - mu) / (|I_u| + beta_u)
//	b_i = sum_{u in U_i} (r_ui - b_u - mu) / (|U_i| + beta_i)
//
// Item deviations are computed from residuals after removing the user
// deviation, so the order of the two passes matters. Unseen users or items
// drop their deviation term.
type DampedBaseline struct {
	BaseModel
	dampingUser float32
	dampingItem float32
	mean        float32
	userBias    []float32 // b_u
	itemBias    []float32 // b_i
	userDict    *dataset.FreqDict
	itemDict    *dataset.FreqDict
}

// NewDampedBaseline creates a DampedBaseline estimator. Params:
//
//	DampingUser - The damping factor for user deviations. Default is 5.
//	DampingItem - The damping factor for item deviations. Default is 5.
func NewDampedBaseline(params Params) (*DampedBaseline, error) {
	m := new(DampedBaseline)
	m.SetParams(params)
	if m.dampingUser < 0 {
		return nil, errors.NotValidf("damping factor %v", m.dampingUser)
	}
	if m.dampingItem < 0 {
		return nil, errors.NotValidf("damping factor %v", m.dampingItem)
	}
	return m, nil
}

// SetParams sets hyper-parameters of the DampedBaseline estimator.
func (m *DampedBaseline) SetParams(params Params) {
	m.BaseModel.SetParams(params)
	m.dampingUser = m.Params.GetFloat32(DampingUser, 5)
	m.dampingItem = m.Params.GetFloat32(DampingItem, 5)
}

func (m *DampedBaseline) GetParamsGrid() ParamsGrid {
	return ParamsGrid{
		DampingUser: []interface{}{0, 1, 5, 10, 25},
		DampingItem: []interface{}{0, 1, 5, 10, 25},
	}
}

// Fit the DampedBaseline estimator.
func (m *DampedBaseline) Fit(_ context.Context, trainSet *dataset.Dataset, _ *FitConfig) error {
	m.mean = trainSet.Mean()
	m.userDict = trainSet.GetUserDict()
	m.itemDict = trainSet.GetItemDict()
	// b_u from residuals against the global mean
	userRatings := trainSet.GetUserRatings()
	m.userBias = make([]float32, len(userRatings))
	for u, ratings := range userRatings {
		if len(ratings) == 0 {
			continue
		}
		sum := float32(0)
		for _, r := range ratings {
			sum += r.B - m.mean
		}
		m.userBias[u] = sum / (float32(len(ratings)) + m.dampingUser)
	}
	// b_i from residuals after removing the user deviation
	itemRatings := trainSet.GetItemRatings()
	m.itemBias = make([]float32, len(itemRatings))
	for i, ratings := range itemRatings {
		if len(ratings) == 0 {
			continue
		}
		sum := float32(0)
		for _, r := range ratings {
			sum += r.B - m.userBias[r.A] - m.mean
		}
		m.itemBias[i] = sum / (float32(len(ratings)) + m.dampingItem)
	}
	log.Logger().Info("fit damped baseline",
		zap.Int("train_set_size", trainSet.Count()),
		zap.Float32("damping_user", m.dampingUser),
		zap.Float32("damping_item", m.dampingItem))
	return nil
}

// Predict returns mu + b_u + b_i, dropping the deviation of an unseen user
// or item.
func (m *DampedBaseline) Predict(userId, itemId string) float32 {
	userIndex := m.userDict.Id(userId)
	itemIndex := m.itemDict.Id(itemId)
	return m.internalPredict(userIndex, itemIndex)
}

func (m *DampedBaseline) internalPredict(userIndex, itemIndex int32) float32 {
	ret := m.mean
	if userIndex >= 0 && userIndex < int32(len(m.userBias)) {
		ret += m.userBias[userIndex]
	}
	if itemIndex >= 0 && itemIndex < int32(len(m.itemBias)) {
		ret += m.itemBias[itemIndex]
	}
	return ret
}

func (m *DampedBaseline) Clear() {
	m.mean = 0
	m.userBias = nil
	m.itemBias = nil
	m.userDict = nil
	m.itemDict = nil
}
