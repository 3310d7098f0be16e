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

// Package model implements rating estimators over a dataset.Dataset and the
// cross-validation harness used to compare them.
package model

import (
	"context"

	"github.com/cfbench/cfbench/base"
	"github.com/cfbench/cfbench/dataset"
)

// Model is the interface implemented by every estimator: GlobalMean,
// PerIDMean, DampedBaseline, KNN, ALS and SGD.
type Model interface {
	// Set hyper-parameters.
	SetParams(params Params)
	// Get hyper-parameters.
	GetParams() Params
	// Get the default hyper-parameter search grid.
	GetParamsGrid() ParamsGrid
	// Fit the estimator on a training set. All state produced by a previous
	// fit is replaced.
	Fit(ctx context.Context, trainSet *dataset.Dataset, config *FitConfig) error
	// Predict the rating given by a user to an item. Unseen users or items
	// degrade to a coarser statistic and never fail.
	Predict(userId, itemId string) float32
	// Clear fitted state.
	Clear()
}

// FitConfig holds runtime options of a fit.
type FitConfig struct {
	Jobs    int
	Verbose int
}

// NewFitConfig creates a default fit configuration.
func NewFitConfig() *FitConfig {
	return &FitConfig{
		Jobs:    1,
		Verbose: 10,
	}
}

func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

func (config *FitConfig) SetJobs(jobs int) *FitConfig {
	config.Jobs = jobs
	return config
}

// BaseModel is embedded by every estimator. Hyper-parameters and the seeded
// random generator are managed by the BaseModel.
type BaseModel struct {
	Params    Params               // Hyper-parameters
	rng       base.RandomGenerator // Random generator
	randState int64                // Random seed
}

// SetParams sets hyper-parameters for the BaseModel.
func (model *BaseModel) SetParams(params Params) {
	model.Params = params
	model.randState = model.Params.GetInt64(RandomState, 0)
	model.rng = base.NewRandomGenerator(model.randState)
}

// GetParams returns all hyper-parameters.
func (model *BaseModel) GetParams() Params {
	return model.Params
}

// GetRandomGenerator returns the seeded random generator.
func (model *BaseModel) GetRandomGenerator() base.RandomGenerator {
	return model.rng
}
