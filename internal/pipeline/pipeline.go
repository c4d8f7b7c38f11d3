package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"time"

	"linepair/internal/diag"
	"linepair/pkg/contract"
)

// - 单向数据流：Generator → Inspect(计数) → Filter → Inspect(计数) → Reduce → ToResult。
// - 全程同步拉取，无内部并发；任一阶段至多持有一个元素。
// - 源句柄由 Generator 独占；此层只做计数包装，不缓存行。
// - 失败不给出部分结果。

// Components 聚合运行所需的原子组件。
type Components struct {
	Source    contract.Opener
	Generator contract.Generator
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	// A: 目标差值 J - I；必须 >= 0。
	A int64
	// Strategy: Generator 的注册名，仅用于日志与终端提示。
	Strategy string
	// ProgressEvery: 每处理多少个外层元素刷新一次进度；<=0 使用默认 64。
	ProgressEvery int
}

// Run 执行一次完整搜索。
// 错误：
// - A < 0 → ErrInvalidArgument（不打开源）；
// - 源打开/回绕/读取失败 → ErrSourceUnavailable；
// - 外层扫描无整数 → ErrNoParsableInput；
// - 过滤后为空 → ErrNoSatisfyingPair。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) (contract.Result, contract.Stats, error) {
	var stats contract.Stats
	if err := sanity(comp, set); err != nil {
		return contract.Result{}, stats, fmt.Errorf("sanity: %w", err)
	}
	sid := string(comp.Source.ID())
	t := logger.StartWithKV("pipeline", "search", sid, map[string]string{
		"a":        strconv.FormatInt(set.A, 10),
		"strategy": set.Strategy,
	})
	start := time.Now()
	if term := diag.GetTerminal(); term != nil {
		term.RunStart(sid, set.Strategy, set.A)
	}

	every := int64(set.ProgressEvery)
	if every <= 0 {
		every = 64
	}
	src := &countingOpener{Opener: comp.Source}
	lastOuter := -1
	var seq iter.Seq2[contract.Candidate, error]
	seq = comp.Generator.Generate(ctx, src)
	seq = Inspect(seq, func(c contract.Candidate) {
		stats.Candidates++
		if c.Outer.Index != lastOuter {
			lastOuter = c.Outer.Index
			stats.Parsed++
			if stats.Parsed%every == 0 {
				if term := diag.GetTerminal(); term != nil {
					term.ScanProgress(stats.Parsed, stats.Matches)
				}
			}
		}
	})
	seq = Filter(seq, set.A)
	seq = Inspect(seq, func(contract.Candidate) { stats.Matches++ })

	win, ok, err := Reduce(seq)
	stats.Lines, stats.Scans = src.lines, src.scans
	diag.AddLines(sid, src.lines)
	diag.AddScans(sid, src.scans)
	diag.ObserveDuration("pipeline", "search", time.Since(start).Milliseconds())

	if err == nil && !ok {
		if stats.Candidates == 0 {
			err = contract.ErrNoParsableInput
		} else {
			err = contract.ErrNoSatisfyingPair
		}
	}
	if err != nil {
		code := diag.Classify(err)
		logger.ErrorWithKV("pipeline", string(code), "search failed", &start, sid, statsKV(stats))
		diag.IncOp("pipeline", "search", "error")
		diag.IncError("pipeline", string(code))
		return contract.Result{}, stats, fmt.Errorf("search: %w", err)
	}

	res := ToResult(win)
	logger.DebugStart("pipeline", "winner", sid, map[string]string{
		"outer_index": strconv.Itoa(win.Outer.Index),
		"outer_value": strconv.FormatInt(win.Outer.Value, 10),
		"inner_index": strconv.Itoa(win.Inner.Index),
		"inner_value": strconv.FormatInt(win.Inner.Value, 10),
	})
	t.Finish("search", stats.Matches)
	diag.IncOp("pipeline", "search", "success")
	return res, stats, nil
}

func sanity(comp Components, set Settings) error {
	if set.A < 0 {
		return fmt.Errorf("%w: a=%d is below zero", contract.ErrInvalidArgument, set.A)
	}
	if comp.Source == nil {
		return errors.New("source is nil")
	}
	if comp.Generator == nil {
		return errors.New("generator is nil")
	}
	return nil
}

func statsKV(s contract.Stats) map[string]string {
	return map[string]string{
		"lines":      strconv.FormatInt(s.Lines, 10),
		"parsed":     strconv.FormatInt(s.Parsed, 10),
		"candidates": strconv.FormatInt(s.Candidates, 10),
		"matches":    strconv.FormatInt(s.Matches, 10),
		"scans":      strconv.FormatInt(s.Scans, 10),
	}
}

// countingOpener 统计经其打开的所有句柄的读行数与遍历次数。
type countingOpener struct {
	contract.Opener
	lines int64
	scans int64
}

func (o *countingOpener) Open(ctx context.Context) (contract.LineSource, error) {
	ls, err := o.Opener.Open(ctx)
	if err != nil {
		return nil, err
	}
	return &countingSource{LineSource: ls, o: o}, nil
}

type countingSource struct {
	contract.LineSource
	o *countingOpener
}

func (s *countingSource) Lines() iter.Seq[string] {
	inner := s.LineSource.Lines()
	return func(yield func(string) bool) {
		s.o.scans++
		for line := range inner {
			s.o.lines++
			if !yield(line) {
				return
			}
		}
	}
}
