// Package rescan 以“外层一次、内层每项回绕一遍”的方式生成候选对。
// 内存占用与输入规模无关：同时只持有两个源句柄与各自一行。
package rescan

import (
	"context"
	"fmt"
	"iter"

	"linepair/internal/lineval"
	"linepair/pkg/contract"
)

// Options 目前为空，保留以便注册表统一严格解码。
type Options struct{}

type Rescan struct{}

func New(_ Options) *Rescan { return &Rescan{} }

// Generate 实现 contract.Generator。
// 外层句柄在首次拉取时打开；内层句柄在首个外层值出现时才打开，
// 之后对每个外层值 Rewind 一次。结束或提前停止时关闭两者。
func (g *Rescan) Generate(ctx context.Context, src contract.Opener) iter.Seq2[contract.Candidate, error] {
	return func(yield func(contract.Candidate, error) bool) {
		var zero contract.Candidate
		outer, err := src.Open(ctx)
		if err != nil {
			yield(zero, fmt.Errorf("rescan: open outer: %w", err))
			return
		}
		defer outer.Close()

		var inner contract.LineSource
		defer func() {
			if inner != nil {
				_ = inner.Close()
			}
		}()

		for ov := range lineval.Produce(outer.Lines()) {
			if err := ctx.Err(); err != nil {
				yield(zero, err)
				return
			}
			if inner == nil {
				if inner, err = src.Open(ctx); err != nil {
					inner = nil
					yield(zero, fmt.Errorf("rescan: open inner: %w", err))
					return
				}
			}
			if err := inner.Rewind(); err != nil {
				yield(zero, fmt.Errorf("rescan: rewind inner at line %d: %w", ov.Index+1, err))
				return
			}
			for iv := range lineval.Produce(inner.Lines()) {
				if !yield(contract.Candidate{Outer: ov, Inner: iv}, nil) {
					return
				}
			}
			if err := inner.Err(); err != nil {
				yield(zero, fmt.Errorf("rescan: inner scan: %w", err))
				return
			}
		}
		if err := outer.Err(); err != nil {
			yield(zero, fmt.Errorf("rescan: outer scan: %w", err))
		}
	}
}
