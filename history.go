package main

import (
	"math"
	"sort"
)

// History is a fixed-size ring of samples used to smooth noisy sensor
// readings before they reach the datastore.
type History struct {
	data []float64
	ttl  int
	sz   int
}

// NewHistory creates a History holding the last sz samples.
func NewHistory(sz int) *History {
	return &History{
		data: make([]float64, sz),
		sz:   sz,
	}
}

// Push adds a value to the history, evicting the oldest once full.
func (h *History) Push(f float64) {
	h.data[h.ttl%h.sz] = f
	h.ttl++
}

// Len returns the number of valid samples in the History.
func (h *History) Len() int {
	if h.ttl < h.sz {
		return h.ttl
	}
	return h.sz
}

// Average returns the mean of the stored samples.
func (h *History) Average() float64 {
	if h.Len() == 0 {
		return 0.0
	}
	total := 0.0
	for _, element := range h.data[:h.Len()] {
		total += element
	}
	return total / float64(h.Len())
}

// Median returns the median of the stored samples.  The median rejects the
// single-sample glitches that 1-wire probes and hall sensors produce.
func (h *History) Median() float64 {
	if h.Len() < 2 {
		return h.Average()
	}
	data := make([]float64, h.Len())
	copy(data, h.data[:h.Len()])
	sort.Float64s(data)
	return data[len(data)/2]
}

// Stddev returns the standard deviation of the stored samples.
func (h *History) Stddev() float64 {
	if h.Len() < 1 {
		return 0.0
	}
	avg := h.Average()
	variance := 0.0
	for _, n := range h.data[:h.Len()] {
		variance += math.Pow(avg-n, 2.0)
	}
	return math.Sqrt(variance / float64(h.Len()))
}
