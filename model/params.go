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
	"github.com/cfbench/cfbench/base/log"
	"go.uber.org/zap"
)

/* ParamName */

// ParamName is the type of hyper-parameter names.
type ParamName string

// Predefined hyper-parameter names
const (
	Lr          ParamName = "Lr"          // learning rate
	Reg         ParamName = "Reg"         // regularization strength for latent factors
	RegBias     ParamName = "RegBias"     // regularization strength for biases
	NEpochs     ParamName = "NEpochs"     // number of epochs
	NFactors    ParamName = "NFactors"    // number of latent factors
	RandomState ParamName = "RandomState" // random state (seed)
	InitMean    ParamName = "InitMean"    // mean of gaussian initial parameters
	InitStdDev  ParamName = "InitStdDev"  // standard deviation of gaussian initial parameters
	K           ParamName = "K"           // number of neighbors
	Type        ParamName = "Type"        // estimator type (user or item)
	Similarity  ParamName = "Similarity"  // similarity function name
	DampingUser ParamName = "DampingUser" // damping factor for user deviations
	DampingItem ParamName = "DampingItem" // damping factor for item deviations
)

// Values for the Type hyper-parameter.
const (
	TypeUser = "user"
	TypeItem = "item"
)

// Values for the Similarity hyper-parameter.
const (
	SimilarityCosine  = "cosine"
	SimilarityPearson = "pearson"
	SimilarityMSD     = "msd"
)

// Params stores hyper-parameters for an estimator. It is a map between
// names and values. For example, hyper-parameters for SGD are given by:
//
//	model.Params{
//		model.Lr:       0.01,
//		model.NEpochs:  20,
//		model.NFactors: 50,
//		model.Reg:      0.02,
//	}
type Params map[ParamName]interface{}

// Copy hyper-parameters.
func (parameters Params) Copy() Params {
	newParams := make(Params)
	for k, v := range parameters {
		newParams[k] = v
	}
	return newParams
}

// Merge another group of hyper-parameters into a copy of the current group.
func (parameters Params) Merge(params Params) Params {
	merged := parameters.Copy()
	for k, v := range params {
		merged[k] = v
	}
	return merged
}

// GetInt gets an integer parameter by name. Returns _default if not exists.
func (parameters Params) GetInt(name ParamName, _default int) int {
	if val, exist := parameters[name]; exist {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		default:
			log.Logger().Warn("type mismatch in hyper-parameters",
				zap.String("name", string(name)), zap.Any("value", val))
		}
	}
	return _default
}

// GetInt64 gets an int64 parameter by name. Returns _default if not exists.
func (parameters Params) GetInt64(name ParamName, _default int64) int64 {
	if val, exist := parameters[name]; exist {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		default:
			log.Logger().Warn("type mismatch in hyper-parameters",
				zap.String("name", string(name)), zap.Any("value", val))
		}
	}
	return _default
}

// GetFloat32 gets a float parameter by name. Returns _default if not exists.
func (parameters Params) GetFloat32(name ParamName, _default float32) float32 {
	if val, exist := parameters[name]; exist {
		switch v := val.(type) {
		case float32:
			return v
		case float64:
			return float32(v)
		case int:
			return float32(v)
		default:
			log.Logger().Warn("type mismatch in hyper-parameters",
				zap.String("name", string(name)), zap.Any("value", val))
		}
	}
	return _default
}

// GetString gets a string parameter by name. Returns _default if not exists.
func (parameters Params) GetString(name ParamName, _default string) string {
	if val, exist := parameters[name]; exist {
		if v, ok := val.(string); ok {
			return v
		}
		log.Logger().Warn("type mismatch in hyper-parameters",
			zap.String("name", string(name)), zap.Any("value", val))
	}
	return _default
}

// ParamsGrid is a grid of candidate values per hyper-parameter, consumed by
// the search helpers in validation.go.
type ParamsGrid map[ParamName][]interface{}
