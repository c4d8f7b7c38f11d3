// Package snapshot 一次读入全部整数值后在内存中做笛卡尔积。
// 只遍历源一遍；内存随可解析行数线性增长。适合不可重复读取或很慢的源。
package snapshot

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"linepair/internal/lineval"
	"linepair/pkg/contract"
)

// Options 目前为空。
type Options struct{}

type Snapshot struct{}

func New(_ Options) *Snapshot { return &Snapshot{} }

// Generate 实现 contract.Generator；产出顺序与 rescan 完全一致。
func (g *Snapshot) Generate(ctx context.Context, src contract.Opener) iter.Seq2[contract.Candidate, error] {
	return func(yield func(contract.Candidate, error) bool) {
		var zero contract.Candidate
		vals, err := load(ctx, src)
		if err != nil {
			yield(zero, err)
			return
		}
		for _, ov := range vals {
			if err := ctx.Err(); err != nil {
				yield(zero, err)
				return
			}
			for _, iv := range vals {
				if !yield(contract.Candidate{Outer: ov, Inner: iv}, nil) {
					return
				}
			}
		}
	}
}

func load(ctx context.Context, src contract.Opener) ([]contract.LineValue, error) {
	ls, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open: %w", err)
	}
	defer ls.Close()
	vals := slices.Collect(lineval.Produce(ls.Lines()))
	if err := ls.Err(); err != nil {
		return nil, fmt.Errorf("snapshot: scan: %w", err)
	}
	return vals, nil
}
