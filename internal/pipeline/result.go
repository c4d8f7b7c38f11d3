package pipeline

import "linepair/pkg/contract"

// ToResult 将零基行位置映射为 1 基行号。
func ToResult(c contract.Candidate) contract.Result {
	return contract.Result{LineI: c.Outer.Index + 1, LineJ: c.Inner.Index + 1}
}
