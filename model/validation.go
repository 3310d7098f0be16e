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

	"github.com/cfbench/cfbench/base"
	"github.com/cfbench/cfbench/base/log"
	"github.com/cfbench/cfbench/base/parallel"
	"github.com/cfbench/cfbench/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// CrossValidateResult holds one scorer's value on every held-out fold, so
// variance across folds stays visible.
type CrossValidateResult struct {
	TestScores []float32
}

// Mean returns the mean score across folds.
func (r CrossValidateResult) Mean() float32 {
	if len(r.TestScores) == 0 {
		return 0
	}
	return lo.Sum(r.TestScores) / float32(len(r.TestScores))
}

// CrossValidate evaluates an estimator by k-fold cross-validation. For each
// fold a fresh estimator from factory is fitted on the union of the other
// folds and scored on the held-out fold. Folds are independent and run in
// parallel workers sharing the read-only dataset. One result is returned
// per scorer, in order.
func CrossValidate(ctx context.Context, factory func() (Model, error), set *dataset.Dataset,
	nFolds int, seed int64, config *FitConfig, scorers ...Scorer) ([]CrossValidateResult, error) {
	if nFolds < 2 {
		return nil, errors.NotValidf("fold count %d", nFolds)
	}
	if config == nil {
		config = NewFitConfig()
	}
	trainFolds, testFolds := NewKFoldSplitter(nFolds)(set, seed)
	results := make([]CrossValidateResult, len(scorers))
	for i := range results {
		results[i].TestScores = make([]float32, nFolds)
	}
	err := parallel.Parallel(ctx, nFolds, config.Jobs, func(_, fold int) error {
		estimator, err := factory()
		if err != nil {
			return errors.Trace(err)
		}
		if err := estimator.Fit(ctx, trainFolds[fold], config); err != nil {
			return errors.Trace(err)
		}
		for i, scorer := range scorers {
			results[i].TestScores[fold] = scorer(estimator, testFolds[fold])
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return results, nil
}

// ParamsSearchResult contains the return of a hyper-parameter search.
type ParamsSearchResult struct {
	BestScore  float32
	BestParams Params
	BestIndex  int
	Scores     []float32
	Params     []Params
}

func (r *ParamsSearchResult) addScore(params Params, score float32) {
	r.Scores = append(r.Scores, score)
	r.Params = append(r.Params, params.Copy())
	if len(r.Scores) == 1 || score < r.BestScore {
		r.BestScore = score
		r.BestParams = params.Copy()
		r.BestIndex = len(r.Params) - 1
	}
}

// GridSearchCV walks every parameter combination in the grid and picks the
// one minimizing mean MAE across folds.
func GridSearchCV(ctx context.Context, factory func(Params) (Model, error), set *dataset.Dataset,
	paramGrid ParamsGrid, nFolds int, seed int64, config *FitConfig) (ParamsSearchResult, error) {
	// Retrieve parameter names and the grid size
	paramNames := make([]ParamName, 0, len(paramGrid))
	count := 1
	for paramName, values := range paramGrid {
		paramNames = append(paramNames, paramName)
		count *= len(values)
	}
	results := ParamsSearchResult{
		Scores: make([]float32, 0, count),
		Params: make([]Params, 0, count),
	}
	// Construct DFS procedure
	progress := 0
	var dfs func(deep int, params Params) error
	dfs = func(deep int, params Params) error {
		if deep == len(paramNames) {
			progress++
			log.Logger().Info("grid search",
				zap.Int("progress", progress),
				zap.Int("total", count),
				zap.Any("params", params))
			score, err := searchScore(ctx, factory, set, params, nFolds, seed, config)
			if err != nil {
				return errors.Trace(err)
			}
			results.addScore(params, score)
			return nil
		}
		paramName := paramNames[deep]
		for _, val := range paramGrid[paramName] {
			params[paramName] = val
			if err := dfs(deep+1, params); err != nil {
				return errors.Trace(err)
			}
		}
		return nil
	}
	if err := dfs(0, make(Params)); err != nil {
		return ParamsSearchResult{}, errors.Trace(err)
	}
	return results, nil
}

// RandomSearchCV searches hyper-parameters by random trials, picking the
// combination minimizing mean MAE across folds.
func RandomSearchCV(ctx context.Context, factory func(Params) (Model, error), set *dataset.Dataset,
	paramGrid ParamsGrid, numTrials, nFolds int, seed int64, config *FitConfig) (ParamsSearchResult, error) {
	rng := base.NewRandomGenerator(seed)
	results := ParamsSearchResult{
		Scores: make([]float32, 0, numTrials),
		Params: make([]Params, 0, numTrials),
	}
	for i := 1; i <= numTrials; i++ {
		params := Params{}
		for paramName, values := range paramGrid {
			params[paramName] = values[rng.Intn(len(values))]
		}
		log.Logger().Info("random search",
			zap.Int("trial", i),
			zap.Int("total", numTrials),
			zap.Any("params", params))
		score, err := searchScore(ctx, factory, set, params, nFolds, seed, config)
		if err != nil {
			return ParamsSearchResult{}, errors.Trace(err)
		}
		results.addScore(params, score)
	}
	return results, nil
}

func searchScore(ctx context.Context, factory func(Params) (Model, error), set *dataset.Dataset,
	params Params, nFolds int, seed int64, config *FitConfig) (float32, error) {
	scores, err := CrossValidate(ctx, func() (Model, error) {
		return factory(params.Copy())
	}, set, nFolds, seed, config, MAE)
	if err != nil {
		return 0, errors.Trace(err)
	}
	return scores[0].Mean(), nil
}
