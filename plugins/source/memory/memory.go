// Package memory 提供基于内存切片的可回绕行源，用于测试与内嵌调用。
package memory

import (
	"context"
	"iter"
	"slices"

	"linepair/pkg/contract"
)

// Options 为 Memory 源的配置；Lines 即全部原始行（不含行尾）。
type Options struct {
	Lines []string `json:"lines"`
}

// Memory 实现 contract.Opener。构造时复制一份行切片，之后只读。
type Memory struct {
	id    contract.SourceID
	lines []string
}

// New 以给定的原始行创建内存源。
func New(lines []string) *Memory {
	return &Memory{id: "memory", lines: slices.Clone(lines)}
}

// NewNamed 同 New，允许指定源标识（日志与指标标签）。
func NewNamed(id string, lines []string) *Memory {
	m := New(lines)
	if id != "" {
		m.id = contract.NormalizeSourceID(id)
	}
	return m
}

func (m *Memory) ID() contract.SourceID { return m.id }

// Open 返回独立游标；各句柄互不影响。
func (m *Memory) Open(ctx context.Context) (contract.LineSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &cursor{lines: m.lines}, nil
}

type cursor struct {
	lines  []string
	pos    int
	closed bool
}

func (c *cursor) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		for !c.closed && c.pos < len(c.lines) {
			line := c.lines[c.pos]
			c.pos++
			if !yield(line) {
				return
			}
		}
	}
}

func (c *cursor) Rewind() error {
	if c.closed {
		return contract.ErrSourceUnavailable
	}
	c.pos = 0
	return nil
}

func (c *cursor) Err() error { return nil }

func (c *cursor) Close() error { c.closed = true; return nil }
