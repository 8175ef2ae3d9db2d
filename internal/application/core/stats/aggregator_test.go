package stats

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rowkit/userstream/internal/application/core/domain"
)

func TestAgeAggregatorMean(t *testing.T) {
	tests := []struct {
		name string
		ages []float64
		want float64
	}{
		{name: "three ages", ages: []float64{20, 30, 40}, want: 30.0},
		{name: "single value", ages: []float64{52.5}, want: 52.5},
		{name: "fractional mean", ages: []float64{20, 21}, want: 20.5},
		{name: "large stream", ages: repeat(33, 10000), want: 33.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var agg AgeAggregator
			for _, age := range tt.ages {
				agg.Add(age)
			}
			mean, err := agg.Mean()
			assert.Nil(t, err)
			assert.InDelta(t, tt.want, mean, 1e-9)
			assert.Equal(t, int64(len(tt.ages)), agg.Count())
		})
	}
}

func TestAgeAggregatorNoData(t *testing.T) {
	var agg AgeAggregator
	_, err := agg.Mean()
	assert.True(t, errors.Is(err, ErrNoData))
	assert.Equal(t, "average age of users: no data", agg.Report())
}

func TestAgeAggregatorReport(t *testing.T) {
	var agg AgeAggregator
	for _, age := range []float64{20, 30, 40} {
		agg.Add(age)
	}
	assert.Equal(t, "average age of users: 30.00", agg.Report())
}

func TestAverageAge(t *testing.T) {
	it := &stubIterator{users: []*domain.User{
		{Age: 20}, {Age: 30}, {Age: 40},
	}}
	mean, err := AverageAge(it)
	assert.Nil(t, err)
	assert.InDelta(t, 30.0, mean, 1e-9)
	assert.True(t, it.closed, "the aggregator must close the iterator")
}

func TestAverageAgeNoData(t *testing.T) {
	it := &stubIterator{}
	_, err := AverageAge(it)
	assert.True(t, errors.Is(err, ErrNoData))
	assert.True(t, it.closed)
}

func TestAverageAgeIteratorFailure(t *testing.T) {
	it := &stubIterator{
		users:  []*domain.User{{Age: 20}, {Age: 30}},
		failAt: 2,
	}
	_, err := AverageAge(it)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "connection lost")
	assert.True(t, it.closed)
}

// stubIterator is a repository.UserIterator over a fixed slice, optionally
// failing after failAt-1 successful rows.
type stubIterator struct {
	users   []*domain.User
	idx     int
	failAt  int // fail when advancing to the failAt-th row (1-based); 0 means never
	lastErr error
	closed  bool
}

func (it *stubIterator) Next() bool {
	if it.lastErr != nil || it.closed {
		return false
	}
	if it.failAt > 0 && it.idx+1 >= it.failAt {
		it.lastErr = errors.New("connection lost")
		return false
	}
	if it.idx >= len(it.users) {
		return false
	}
	it.idx++
	return true
}

func (it *stubIterator) Error() error {
	return it.lastErr
}

func (it *stubIterator) Close() error {
	it.closed = true
	return nil
}

func (it *stubIterator) User() *domain.User {
	return it.users[it.idx-1]
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
