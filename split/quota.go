package split

import "math"

// Quota is the per-split target for the fallback tier of one dataset. It is a
// value: next returns the updated accumulator instead of mutating shared state.
type Quota struct {
	total     [3]int
	remaining [3]int
}

// Quotas computes the fallback targets for a subset of size n.
//
// train = round(r*n), val = round((1-r)/2*n), test = n - train - val. Rounding is
// half away from zero. A subset of exactly one image always goes to train.
//
// Example:
//
//	Quotas(10, 0.6) // train 6, val 2, test 2
//	Quotas(7, 0.6)  // train 4, val 1, test 2
//	Quotas(5, 0.6)  // train 3, val 1, test 1
func Quotas(n int, ratio float64) (train, val, test int) {
	if n <= 0 {
		return 0, 0, 0
	}
	if n == 1 {
		return 1, 0, 0
	}

	train = int(math.Round(ratio * float64(n)))
	val = int(math.Round((1 - ratio) / 2 * float64(n)))
	train = min(train, n)
	val = min(val, n-train)
	return train, val, n - train - val
}

func newQuota(n int, ratio float64) Quota {
	train, val, test := Quotas(n, ratio)
	q := Quota{total: [3]int{train, val, test}}
	q.remaining = q.total
	return q
}

// next hands out the first split with quota left, in train, val, test order.
// Once every quota is used up the cycle starts again from the totals.
func (q Quota) next() (Split, Quota) {
	if q.remaining == [3]int{} {
		q.remaining = q.total
		if q.remaining == [3]int{} {
			return Train, q
		}
	}
	for _, s := range All {
		if q.remaining[s] > 0 {
			q.remaining[s]--
			return s, q
		}
	}
	return Train, q
}
