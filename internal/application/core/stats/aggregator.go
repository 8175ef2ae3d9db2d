// Package stats computes single-pass statistics over lazily streamed rows.
package stats

import (
	"errors"
	"fmt"

	"github.com/rowkit/userstream/internal/ports/repository"
	"golang.org/x/xerrors"
)

// ErrNoData is returned when a mean is requested before any value was
// consumed. It is a distinct outcome, never a division by zero.
var ErrNoData = errors.New("no data")

// AgeAggregator computes the arithmetic mean of a stream of ages in a single
// forward pass. It holds only a running sum and count, never the values
// themselves.
type AgeAggregator struct {
	sum   float64
	count int64
}

// Add consumes one age.
func (a *AgeAggregator) Add(age float64) {
	a.sum += age
	a.count++
}

// Count reports how many values have been consumed so far.
func (a *AgeAggregator) Count() int64 {
	return a.count
}

// Mean returns the arithmetic mean of the consumed values, or ErrNoData when
// nothing was consumed.
func (a *AgeAggregator) Mean() (float64, error) {
	if a.count == 0 {
		return 0, ErrNoData
	}
	return a.sum / float64(a.count), nil
}

// Report renders the mean as a one-line textual report.
func (a *AgeAggregator) Report() string {
	mean, err := a.Mean()
	if err != nil {
		return "average age of users: no data"
	}
	return fmt.Sprintf("average age of users: %.2f", mean)
}

// AverageAge drains it in one pass and returns the mean age of the yielded
// users. The iterator is closed regardless of outcome; a failed traversal
// surfaces the iterator error instead of a partial result.
func AverageAge(it repository.UserIterator) (float64, error) {
	defer it.Close()

	var agg AgeAggregator
	for it.Next() {
		agg.Add(it.User().Age)
	}
	if err := it.Error(); err != nil {
		return 0, xerrors.Errorf("average age: %w", err)
	}
	return agg.Mean()
}
