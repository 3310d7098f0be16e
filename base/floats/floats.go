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

// Package floats provides float32 vector kernels shared by the estimators.
package floats

// Dot computes the dot product of a and b.
func Dot(a, b []float32) (ret float32) {
	for i := range a {
		ret += a[i] * b[i]
	}
	return
}

// Sum returns the sum of all elements of a.
func Sum(a []float32) (ret float32) {
	for i := range a {
		ret += a[i]
	}
	return
}

// MulConst multiplies a by c in place: a[i] *= c.
func MulConst(a []float32, c float32) {
	for i := range a {
		a[i] *= c
	}
}

// MulConstTo stores a scaled copy of a in dst: dst[i] = a[i] * c.
func MulConstTo(a []float32, c float32, dst []float32) {
	for i := range a {
		dst[i] = a[i] * c
	}
}

// MulConstAdd accumulates a scaled copy of a into dst: dst[i] += a[i] * c.
func MulConstAdd(a []float32, c float32, dst []float32) {
	for i := range a {
		dst[i] += a[i] * c
	}
}

// SubTo stores the difference of a and b in dst: dst[i] = a[i] - b[i].
func SubTo(a, b, dst []float32) {
	for i := range a {
		dst[i] = a[i] - b[i]
	}
}

// Zero fills a with zeros.
func Zero(a []float32) {
	for i := range a {
		a[i] = 0
	}
}
