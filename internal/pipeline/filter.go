package pipeline

import (
	"iter"
	"math"

	"linepair/pkg/contract"
)

// Satisfies 判断候选对是否满足 Inner.Value == Outer.Value + a。
// Outer.Value + a 越出 int64 范围时不可能相等，直接返回 false。
func Satisfies(c contract.Candidate, a int64) bool {
	if a > 0 && c.Outer.Value > math.MaxInt64-a {
		return false
	}
	if a < 0 && c.Outer.Value < math.MinInt64-a {
		return false
	}
	return c.Inner.Value == c.Outer.Value+a
}

// Filter 仅保留满足关系的候选对；错误原样透传；不改变顺序。
func Filter(cands iter.Seq2[contract.Candidate, error], a int64) iter.Seq2[contract.Candidate, error] {
	return func(yield func(contract.Candidate, error) bool) {
		for c, err := range cands {
			if err != nil {
				yield(contract.Candidate{}, err)
				return
			}
			if !Satisfies(c, a) {
				continue
			}
			if !yield(c, nil) {
				return
			}
		}
	}
}

// Inspect 对流经的每个候选对调用 fn，不改变序列本身。
func Inspect(cands iter.Seq2[contract.Candidate, error], fn func(contract.Candidate)) iter.Seq2[contract.Candidate, error] {
	return func(yield func(contract.Candidate, error) bool) {
		for c, err := range cands {
			if err != nil {
				yield(contract.Candidate{}, err)
				return
			}
			fn(c)
			if !yield(c, nil) {
				return
			}
		}
	}
}
