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

package dataset

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDataset(t *testing.T) *Dataset {
	set, err := NewDataset([]Rating{
		{UserId: "2", ItemId: "2", Value: 2},
		{UserId: "1", ItemId: "1", Value: 5},
		{UserId: "2", ItemId: "1", Value: 4},
		{UserId: "1", ItemId: "2", Value: 3},
	}, 1, 5)
	require.NoError(t, err)
	return set
}

func TestNewDataset(t *testing.T) {
	set := newTestDataset(t)
	assert.Equal(t, 4, set.Count())
	assert.Equal(t, 2, set.CountUsers())
	assert.Equal(t, 2, set.CountItems())
	assert.Equal(t, float32(3.5), set.Mean())
	assert.Equal(t, float32(1), set.Min())
	assert.Equal(t, float32(5), set.Max())
}

func TestNewDataset_CanonicalOrder(t *testing.T) {
	// dense indices must not depend on the order rows were supplied in
	a := newTestDataset(t)
	b, err := NewDataset([]Rating{
		{UserId: "1", ItemId: "1", Value: 5},
		{UserId: "1", ItemId: "2", Value: 3},
		{UserId: "2", ItemId: "1", Value: 4},
		{UserId: "2", ItemId: "2", Value: 2},
	}, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, a.GetRatings(), b.GetRatings())
	for i := 0; i < a.Count(); i++ {
		au, ai, av := a.Get(i)
		bu, bi, bv := b.Get(i)
		assert.Equal(t, au, bu)
		assert.Equal(t, ai, bi)
		assert.Equal(t, av, bv)
	}
}

func TestNewDataset_InvalidBounds(t *testing.T) {
	_, err := NewDataset(nil, 5, 1)
	assert.True(t, errors.IsNotValid(err))
	_, err = NewDataset(nil, 3, 3)
	assert.True(t, errors.IsNotValid(err))
}

func TestNewDataset_InvalidValue(t *testing.T) {
	_, err := NewDataset([]Rating{{UserId: "1", ItemId: "1", Value: 6}}, 1, 5)
	assert.True(t, errors.IsNotValid(err))
	_, err = NewDataset([]Rating{{UserId: "1", ItemId: "1", Value: 0}}, 1, 5)
	assert.True(t, errors.IsNotValid(err))
	_, err = NewDataset([]Rating{{UserId: "1", ItemId: "1", Value: math32.NaN()}}, 1, 5)
	assert.True(t, errors.IsNotValid(err))
}

func TestDataset_Groups(t *testing.T) {
	set := newTestDataset(t)
	userRatings := set.GetUserRatings()
	require.Len(t, userRatings, 2)
	assert.Equal(t, []lo.Tuple2[int32, float32]{{A: 0, B: 5}, {A: 1, B: 3}}, userRatings[0])
	assert.Equal(t, []lo.Tuple2[int32, float32]{{A: 0, B: 4}, {A: 1, B: 2}}, userRatings[1])
	itemRatings := set.GetItemRatings()
	require.Len(t, itemRatings, 2)
	assert.Equal(t, []lo.Tuple2[int32, float32]{{A: 0, B: 5}, {A: 1, B: 4}}, itemRatings[0])
	assert.Equal(t, []lo.Tuple2[int32, float32]{{A: 0, B: 3}, {A: 1, B: 2}}, itemRatings[1])
}

func TestDataset_SubSet(t *testing.T) {
	set := newTestDataset(t)
	sub := set.SubSet([]int{0, 3})
	assert.Equal(t, 2, sub.Count())
	// dictionaries are shared so dense indices stay aligned
	assert.Same(t, set.GetUserDict(), sub.GetUserDict())
	assert.Same(t, set.GetItemDict(), sub.GetItemDict())
	assert.Equal(t, 2, sub.CountUsers())
	assert.Equal(t, 2, sub.CountItems())
	assert.Equal(t, float32(3.5), sub.Mean())
	u, i, v := sub.Get(0)
	assert.Equal(t, int32(0), u)
	assert.Equal(t, int32(0), i)
	assert.Equal(t, float32(5), v)
	u, i, v = sub.Get(1)
	assert.Equal(t, int32(1), u)
	assert.Equal(t, int32(1), i)
	assert.Equal(t, float32(2), v)
}

func TestDataset_Empty(t *testing.T) {
	set, err := NewDataset(nil, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Count())
	assert.Equal(t, float32(0), set.Mean())
}
