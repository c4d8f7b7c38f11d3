package pipeline

import (
	"iter"
	"math/bits"

	"linepair/pkg/contract"
)

// sum128 以 128 位有符号整数表示 x+y，避免 int64 溢出。
func sum128(x, y int64) (hi int64, lo uint64) {
	lo, carry := bits.Add64(uint64(x), uint64(y), 0)
	// 符号扩展：负数高位为 -1
	hi = (x >> 63) + (y >> 63) + int64(carry)
	return hi, lo
}

// compareSums 比较 (a1+b1) 与 (a2+b2)：-1 小于，0 相等，1 大于。
func compareSums(a1, b1, a2, b2 int64) int {
	h1, l1 := sum128(a1, b1)
	h2, l2 := sum128(a2, b2)
	switch {
	case h1 > h2:
		return 1
	case h1 < h2:
		return -1
	case l1 > l2:
		return 1
	case l1 < l2:
		return -1
	default:
		return 0
	}
}

// Combine 是左折叠的二元合并规则：
//   - 左和更大 → 左；
//   - 和相等且左的 Outer.Index 更小 → 左；
//   - 否则 → 右。
//
// 不能替换为按和取最大：并列时依赖 Outer.Index 决胜。
func Combine(left, right contract.Candidate) contract.Candidate {
	switch compareSums(left.Outer.Value, left.Inner.Value, right.Outer.Value, right.Inner.Value) {
	case 1:
		return left
	case 0:
		if left.Outer.Index < right.Outer.Index {
			return left
		}
	}
	return right
}

// Reduce 以单次遍历将候选序列折叠为唯一胜者。
// 空序列返回 ok=false；遇到错误立即返回该错误，不给出部分结果。
func Reduce(cands iter.Seq2[contract.Candidate, error]) (win contract.Candidate, ok bool, err error) {
	for c, err := range cands {
		if err != nil {
			return contract.Candidate{}, false, err
		}
		if !ok {
			win, ok = c, true
			continue
		}
		win = Combine(win, c)
	}
	return win, ok, nil
}
