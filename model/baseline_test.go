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
	"testing"

	"github.com/cfbench/cfbench/dataset"
	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelEpsilon = 1e-5

// newRatingSet builds the 2x2 rating table used across estimator tests:
//
//	     item 1  item 2
//	user 1    5       3
//	user 2    4       2
func newRatingSet(t *testing.T) *dataset.Dataset {
	set, err := dataset.NewDataset([]dataset.Rating{
		{UserId: "1", ItemId: "1", Value: 5},
		{UserId: "1", ItemId: "2", Value: 3},
		{UserId: "2", ItemId: "1", Value: 4},
		{UserId: "2", ItemId: "2", Value: 2},
	}, 1, 5)
	require.NoError(t, err)
	return set
}

func TestGlobalMean(t *testing.T) {
	set := newRatingSet(t)
	m := NewGlobalMean(nil)
	require.NoError(t, m.Fit(context.Background(), set, NewFitConfig()))
	assert.Equal(t, float32(3.5), m.Predict("1", "1"))
	assert.Equal(t, float32(3.5), m.Predict("3", "3"))
	m.Clear()
	assert.Equal(t, float32(0), m.Predict("1", "1"))
}

func TestPerIDMean_Item(t *testing.T) {
	set := newRatingSet(t)
	m, err := NewPerIDMean(nil)
	require.NoError(t, err)
	require.NoError(t, m.Fit(context.Background(), set, NewFitConfig()))
	assert.Equal(t, float32(4.5), m.Predict("1", "1"))
	assert.Equal(t, float32(2.5), m.Predict("2", "2"))
	// unseen item falls back to the global mean
	assert.Equal(t, float32(3.5), m.Predict("1", "3"))
}

func TestPerIDMean_User(t *testing.T) {
	set := newRatingSet(t)
	m, err := NewPerIDMean(Params{Type: TypeUser})
	require.NoError(t, err)
	require.NoError(t, m.Fit(context.Background(), set, NewFitConfig()))
	assert.Equal(t, float32(4), m.Predict("1", "1"))
	assert.Equal(t, float32(3), m.Predict("2", "2"))
	assert.Equal(t, float32(3.5), m.Predict("3", "1"))
}

func TestPerIDMean_InvalidType(t *testing.T) {
	_, err := NewPerIDMean(Params{Type: "rating"})
	assert.True(t, errors.IsNotValid(err))
}

func TestDampedBaseline(t *testing.T) {
	set := newRatingSet(t)
	m, err := NewDampedBaseline(Params{DampingUser: 0, DampingItem: 0})
	require.NoError(t, err)
	require.NoError(t, m.Fit(context.Background(), set, NewFitConfig()))
	// b_u1=0.5, b_u2=-0.5, b_i1=1, b_i2=-1
	assert.InDelta(t, 5.0, m.Predict("1", "1"), modelEpsilon)
	assert.InDelta(t, 3.0, m.Predict("1", "2"), modelEpsilon)
	assert.InDelta(t, 4.0, m.Predict("2", "1"), modelEpsilon)
	assert.InDelta(t, 2.0, m.Predict("2", "2"), modelEpsilon)
	// unseen user keeps the item deviation
	assert.InDelta(t, 4.5, m.Predict("9", "1"), modelEpsilon)
	// unseen user and item degrade to the global mean
	assert.InDelta(t, 3.5, m.Predict("9", "9"), modelEpsilon)
}

func TestDampedBaseline_LargeDamping(t *testing.T) {
	// damping towards infinity shrinks every deviation to zero, so the
	// prediction converges on the global mean
	set := newRatingSet(t)
	previous := float32(10)
	for _, damping := range []float32{10, 1e3, 1e6, 1e9} {
		m, err := NewDampedBaseline(Params{DampingUser: damping, DampingItem: damping})
		require.NoError(t, err)
		require.NoError(t, m.Fit(context.Background(), set, NewFitConfig()))
		deviation := math32.Abs(m.Predict("1", "1") - 3.5)
		assert.LessOrEqual(t, deviation, previous)
		previous = deviation
	}
	assert.Less(t, previous, float32(1e-3))
}

func TestDampedBaseline_InvalidDamping(t *testing.T) {
	_, err := NewDampedBaseline(Params{DampingUser: -1})
	assert.True(t, errors.IsNotValid(err))
	_, err = NewDampedBaseline(Params{DampingItem: -0.5})
	assert.True(t, errors.IsNotValid(err))
}
