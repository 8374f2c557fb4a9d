/*-
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package metrics

import (
	"testing"
)

// ChannelBuffer is a channel-based PointStore used as a baseline.
type ChannelBuffer struct {
	points chan Point
	size   int
}

// NewChannelBuffer creates a new ChannelBuffer with the specified size.
func NewChannelBuffer(size int) PointStore {
	return &ChannelBuffer{
		points: make(chan Point, size),
		size:   size,
	}
}

// Add adds a new point to the buffer.
func (b *ChannelBuffer) Add(p Point) {
	select {
	case b.points <- p: // Add the point if there's space
	default:
		// Drop the oldest point if the buffer is full
		<-b.points
		b.points <- p
	}
}

// Points drains the buffer and puts the points back.
func (b *ChannelBuffer) Points() []Point {
	points := make([]Point, 0, b.size)

	for len(b.points) > 0 {
		points = append(points, <-b.points)
	}

	for _, p := range points {
		b.points <- p
	}

	return points
}

func (b *ChannelBuffer) Last() (Point, bool) {
	points := b.Points()
	if len(points) == 0 {
		return Point{}, false
	}

	return points[len(points)-1], true
}

// BenchmarkImplementations compares the performance of the implementations.
func BenchmarkImplementations(b *testing.B) {
	implementations := []struct {
		name    string
		factory func(int) PointStore
	}{
		{"RingBuffer", NewBuffer},
		{"ChannelBuffer", NewChannelBuffer},
	}

	for _, impl := range implementations {
		b.Run(impl.name, func(b *testing.B) {
			buffer := impl.factory(1000)

			b.Run("Add", func(b *testing.B) {
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					buffer.Add(Point{Timestamp: uint32(i), Value: float64(i)})
				}
			})

			b.Run("Points", func(b *testing.B) {
				for i := 0; i < 1000; i++ {
					buffer.Add(Point{Timestamp: uint32(i), Value: float64(i)})
				}

				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					_ = buffer.Points()
				}
			})
		})
	}
}
