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
	"fmt"
	"sync"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/cfbench/cfbench/base/floats"
	"github.com/cfbench/cfbench/base/log"
	"github.com/cfbench/cfbench/base/parallel"
	"github.com/cfbench/cfbench/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// baseBiasedMF holds the parameters shared by the latent-factor estimators.
// Both predict with the same formula:
//
//	\hat{r}_{ui} = \mu + b_u + b_i + x_u^T y_i
//
// where \mu is the training mean (fixed, not learned). Queries for users or
// items whose parameters were never trained return \mu alone.
type baseBiasedMF struct {
	BaseModel
	GlobalMean float32 // mu
	UserBias   []float32
	ItemBias   []float32
	UserFactor [][]float32 // x_u
	ItemFactor [][]float32 // y_i
	// set user/item trained flags
	UserPredictable *bitset.BitSet
	ItemPredictable *bitset.BitSet
	userDict        *dataset.FreqDict
	itemDict        *dataset.FreqDict
}

func (m *baseBiasedMF) init(trainSet *dataset.Dataset, nFactors int, initMean, initStdDev float32) {
	m.GlobalMean = trainSet.Mean()
	m.userDict = trainSet.GetUserDict()
	m.itemDict = trainSet.GetItemDict()
	m.UserBias = make([]float32, trainSet.CountUsers())
	m.ItemBias = make([]float32, trainSet.CountItems())
	m.UserFactor = m.GetRandomGenerator().NormalMatrix(trainSet.CountUsers(), nFactors, initMean, initStdDev)
	m.ItemFactor = m.GetRandomGenerator().NormalMatrix(trainSet.CountItems(), nFactors, initMean, initStdDev)
	// entities without training ratings in this fold keep untrained
	// parameters and degrade to the global mean
	m.UserPredictable = bitset.New(uint(trainSet.CountUsers()))
	for userIndex, ratings := range trainSet.GetUserRatings() {
		if len(ratings) > 0 {
			m.UserPredictable.Set(uint(userIndex))
		}
	}
	m.ItemPredictable = bitset.New(uint(trainSet.CountItems()))
	for itemIndex, ratings := range trainSet.GetItemRatings() {
		if len(ratings) > 0 {
			m.ItemPredictable.Set(uint(itemIndex))
		}
	}
}

// IsUserPredictable returns false if the user has no training ratings and its
// parameters were never trained.
func (m *baseBiasedMF) IsUserPredictable(userIndex int32) bool {
	if userIndex < 0 || userIndex >= int32(len(m.UserBias)) {
		return false
	}
	return m.UserPredictable.Test(uint(userIndex))
}

// IsItemPredictable returns false if the item has no training ratings and its
// parameters were never trained.
func (m *baseBiasedMF) IsItemPredictable(itemIndex int32) bool {
	if itemIndex < 0 || itemIndex >= int32(len(m.ItemBias)) {
		return false
	}
	return m.ItemPredictable.Test(uint(itemIndex))
}

// Predict the rating given by a user to an item.
func (m *baseBiasedMF) Predict(userId, itemId string) float32 {
	return m.internalPredict(m.userDict.Id(userId), m.itemDict.Id(itemId))
}

func (m *baseBiasedMF) internalPredict(userIndex, itemIndex int32) float32 {
	if !m.IsUserPredictable(userIndex) || !m.IsItemPredictable(itemIndex) {
		// cold start
		return m.GlobalMean
	}
	return m.GlobalMean + m.UserBias[userIndex] + m.ItemBias[itemIndex] +
		floats.Dot(m.UserFactor[userIndex], m.ItemFactor[itemIndex])
}

func (m *baseBiasedMF) Clear() {
	m.GlobalMean = 0
	m.UserBias = nil
	m.ItemBias = nil
	m.UserFactor = nil
	m.ItemFactor = nil
	m.UserPredictable = nil
	m.ItemPredictable = nil
	m.userDict = nil
	m.itemDict = nil
}

// ALS fits the biased matrix-factorization model by alternating least
// squares: each epoch solves every user's factor and bias with items held
// fixed, then every item's with users held fixed. Per-entity solves are
// independent and run in parallel; the phase boundary acts as a barrier.
type ALS struct {
	baseBiasedMF
	// guards the predictable bitsets during parallel solves
	mu sync.Mutex
	// Hyper parameters
	nFactors   int
	nEpochs    int
	reg        float32
	initMean   float32
	initStdDev float32
}

// NewALS creates an ALS estimator. Params:
//
//	NFactors   - The number of latent factors. Default is 5.
//	NEpochs    - The number of alternation epochs. Default is 15.
//	Reg        - The regularization strength. Default is 0.06.
//	InitMean   - The mean of initial random latent factors. Default is 0.
//	InitStdDev - The standard deviation of initial random latent factors.
//	             Default is 0.1.
func NewALS(params Params) (*ALS, error) {
	als := new(ALS)
	als.SetParams(params)
	if als.nFactors <= 0 {
		return nil, errors.NotValidf("factor count %d", als.nFactors)
	}
	if als.nEpochs <= 0 {
		return nil, errors.NotValidf("epoch count %d", als.nEpochs)
	}
	if als.reg < 0 {
		return nil, errors.NotValidf("regularization %v", als.reg)
	}
	return als, nil
}

// SetParams sets hyper-parameters of the ALS estimator.
func (als *ALS) SetParams(params Params) {
	als.BaseModel.SetParams(params)
	als.nFactors = als.Params.GetInt(NFactors, 5)
	als.nEpochs = als.Params.GetInt(NEpochs, 15)
	als.reg = als.Params.GetFloat32(Reg, 0.06)
	als.initMean = als.Params.GetFloat32(InitMean, 0)
	als.initStdDev = als.Params.GetFloat32(InitStdDev, 0.1)
}

func (als *ALS) GetParamsGrid() ParamsGrid {
	return ParamsGrid{
		NFactors:   []interface{}{2, 5, 10, 20},
		Reg:        []interface{}{0.01, 0.06, 0.1, 0.5},
		InitStdDev: []interface{}{0.01, 0.05, 0.1},
	}
}

// Fit the ALS estimator. The task complexity is O(als.nEpochs).
func (als *ALS) Fit(ctx context.Context, trainSet *dataset.Dataset, config *FitConfig) error {
	if config == nil {
		config = NewFitConfig()
	}
	log.Logger().Info("fit als",
		zap.Int("train_set_size", trainSet.Count()),
		zap.Any("params", als.GetParams()),
		zap.Any("config", config))
	als.init(trainSet, als.nFactors, als.initMean, als.initStdDev)
	userRatings := trainSet.GetUserRatings()
	itemRatings := trainSet.GetItemRatings()
	for epoch := 1; epoch <= als.nEpochs; epoch++ {
		fitStart := time.Now()
		// Update user factors and biases, items fixed. Parallel returning
		// is the barrier before the item phase.
		err := parallel.Parallel(ctx, trainSet.CountUsers(), config.Jobs, func(_, userIndex int) error {
			als.solve(userRatings[userIndex], als.ItemBias, als.ItemFactor,
				als.UserFactor[userIndex], &als.UserBias[userIndex],
				als.UserPredictable, uint(userIndex))
			return nil
		})
		if err != nil {
			return errors.Trace(err)
		}
		// Update item factors and biases, users fixed.
		err = parallel.Parallel(ctx, trainSet.CountItems(), config.Jobs, func(_, itemIndex int) error {
			als.solve(itemRatings[itemIndex], als.UserBias, als.UserFactor,
				als.ItemFactor[itemIndex], &als.ItemBias[itemIndex],
				als.ItemPredictable, uint(itemIndex))
			return nil
		})
		if err != nil {
			return errors.Trace(err)
		}
		if epoch%config.Verbose == 0 || epoch == als.nEpochs {
			log.Logger().Debug(fmt.Sprintf("fit als %v/%v", epoch, als.nEpochs),
				zap.String("fit_time", time.Since(fitStart).String()))
		}
	}
	return nil
}

// solve recomputes one entity's factor and bias by regularized least squares
// over its ratings, with the opposite side fixed:
//
//	(sum_z z z^T + lambda I) w = sum_z (r - mu - b_other) z,  z = [y; 1]
//
// A singular system is treated like a cold start: the entity keeps zero
// parameters and is marked unpredictable.
func (als *ALS) solve(ratings []lo.Tuple2[int32, float32], otherBias []float32, otherFactor [][]float32,
	factor []float32, bias *float32, predictable *bitset.BitSet, index uint) {
	if len(ratings) == 0 {
		return
	}
	dim := als.nFactors + 1
	a := mat.NewSymDense(dim, nil)
	b := mat.NewVecDense(dim, nil)
	z := mat.NewVecDense(dim, nil)
	for _, r := range ratings {
		for f := 0; f < als.nFactors; f++ {
			z.SetVec(f, float64(otherFactor[r.A][f]))
		}
		z.SetVec(als.nFactors, 1)
		a.SymRankOne(a, 1, z)
		residual := float64(r.B - als.GlobalMean - otherBias[r.A])
		b.AddScaledVec(b, residual, z)
	}
	for d := 0; d < dim; d++ {
		a.SetSym(d, d, a.At(d, d)+float64(als.reg))
	}
	var chol mat.Cholesky
	var w mat.VecDense
	if !chol.Factorize(a) || chol.SolveVecTo(&w, b) != nil {
		// numeric instability, fall back to the global mean for this entity
		floats.Zero(factor)
		*bias = 0
		als.mu.Lock()
		predictable.Clear(index)
		als.mu.Unlock()
		return
	}
	for f := 0; f < als.nFactors; f++ {
		factor[f] = float32(w.AtVec(f))
	}
	*bias = float32(w.AtVec(als.nFactors))
}

// SGD fits the biased matrix-factorization model by stochastic gradient
// descent, visiting the training ratings in a fresh seeded permutation each
// epoch. Each step updates b_u, b_i, x_u and y_i simultaneously from the
// pre-update values of the opposite parameters. The loop is inherently
// serial per epoch; that is a known performance bound of the method.
type SGD struct {
	baseBiasedMF
	// Hyper parameters
	nFactors   int
	nEpochs    int
	lr         float32
	reg        float32
	regBias    float32
	initMean   float32
	initStdDev float32
}

// NewSGD creates an SGD estimator. Params:
//
//	NFactors   - The number of latent factors. Default is 50.
//	NEpochs    - The number of epochs. Default is 20.
//	Lr         - The learning rate. Default is 0.01.
//	Reg        - The regularization strength for factors. Default is 0.02.
//	RegBias    - The regularization strength for biases. Defaults to Reg.
//	InitMean   - The mean of initial random latent factors. Default is 0.
//	InitStdDev - The standard deviation of initial random latent factors.
//	             Default is 0.1.
func NewSGD(params Params) (*SGD, error) {
	sgd := new(SGD)
	sgd.SetParams(params)
	if sgd.nFactors <= 0 {
		return nil, errors.NotValidf("factor count %d", sgd.nFactors)
	}
	if sgd.nEpochs <= 0 {
		return nil, errors.NotValidf("epoch count %d", sgd.nEpochs)
	}
	if sgd.lr <= 0 {
		return nil, errors.NotValidf("learning rate %v", sgd.lr)
	}
	if sgd.reg < 0 || sgd.regBias < 0 {
		return nil, errors.NotValidf("regularization %v/%v", sgd.reg, sgd.regBias)
	}
	return sgd, nil
}

// SetParams sets hyper-parameters of the SGD estimator.
func (sgd *SGD) SetParams(params Params) {
	sgd.BaseModel.SetParams(params)
	sgd.nFactors = sgd.Params.GetInt(NFactors, 50)
	sgd.nEpochs = sgd.Params.GetInt(NEpochs, 20)
	sgd.lr = sgd.Params.GetFloat32(Lr, 0.01)
	sgd.reg = sgd.Params.GetFloat32(Reg, 0.02)
	sgd.regBias = sgd.Params.GetFloat32(RegBias, sgd.reg)
	sgd.initMean = sgd.Params.GetFloat32(InitMean, 0)
	sgd.initStdDev = sgd.Params.GetFloat32(InitStdDev, 0.1)
}

func (sgd *SGD) GetParamsGrid() ParamsGrid {
	return ParamsGrid{
		NFactors: []interface{}{10, 20, 50, 100},
		Lr:       []interface{}{0.005, 0.01, 0.05},
		Reg:      []interface{}{0.01, 0.02, 0.1},
	}
}

// Fit the SGD estimator. The task complexity is O(sgd.nEpochs).
func (sgd *SGD) Fit(ctx context.Context, trainSet *dataset.Dataset, config *FitConfig) error {
	if config == nil {
		config = NewFitConfig()
	}
	log.Logger().Info("fit sgd",
		zap.Int("train_set_size", trainSet.Count()),
		zap.Any("params", sgd.GetParams()),
		zap.Any("config", config))
	sgd.init(trainSet, sgd.nFactors, sgd.initMean, sgd.initStdDev)
	// Create buffers
	userBuffer := make([]float32, sgd.nFactors)
	itemBuffer := make([]float32, sgd.nFactors)
	grad := make([]float32, sgd.nFactors)
	for epoch := 1; epoch <= sgd.nEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return errors.Trace(err)
		}
		fitStart := time.Now()
		cost := float32(0)
		perm := sgd.GetRandomGenerator().Perm(trainSet.Count())
		for _, index := range perm {
			userIndex, itemIndex, value := trainSet.Get(index)
			// Compute error: e_{ui} = \hat{r} - r
			diff := sgd.internalPredict(userIndex, itemIndex) - value
			cost += diff * diff
			// Update user bias: b_u <- b_u - \eta (e_{ui} + \lambda b_u)
			userBias := sgd.UserBias[userIndex]
			itemBias := sgd.ItemBias[itemIndex]
			sgd.UserBias[userIndex] -= sgd.lr * (diff + sgd.regBias*userBias)
			// Update item bias: b_i <- b_i - \eta (e_{ui} + \lambda b_i)
			sgd.ItemBias[itemIndex] -= sgd.lr * (diff + sgd.regBias*itemBias)
			// Update latent factors from pre-update copies of both sides
			copy(userBuffer, sgd.UserFactor[userIndex])
			copy(itemBuffer, sgd.ItemFactor[itemIndex])
			// x_u <- x_u - \eta (e_{ui} y_i + \lambda x_u)
			floats.MulConstTo(itemBuffer, diff, grad)
			floats.MulConstAdd(userBuffer, sgd.reg, grad)
			floats.MulConstAdd(grad, -sgd.lr, sgd.UserFactor[userIndex])
			// y_i <- y_i - \eta (e_{ui} x_u + \lambda y_i)
			floats.MulConstTo(userBuffer, diff, grad)
			floats.MulConstAdd(itemBuffer, sgd.reg, grad)
			floats.MulConstAdd(grad, -sgd.lr, sgd.ItemFactor[itemIndex])
		}
		if epoch%config.Verbose == 0 || epoch == sgd.nEpochs {
			log.Logger().Debug(fmt.Sprintf("fit sgd %v/%v", epoch, sgd.nEpochs),
				zap.String("fit_time", time.Since(fitStart).String()),
				zap.Float32("train_cost", cost/float32(trainSet.Count())))
		}
	}
	return nil
}
