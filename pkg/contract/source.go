package contract

import (
	"context"
	"iter"
)

// LineSource: 可回绕的行源。
// 约束：
//  1. Lines 从当前位置起逐行产出文本，去除行尾 "\n" / "\r\n"；
//  2. Rewind 将位置重置到开头，可任意次调用而无需重新打开；
//  3. 读错误不经迭代返回，而是粘滞于 Err（首个错误）；
//  4. 单读者、非并发：同一 LineSource 上不得交叠两次遍历。
type LineSource interface {
	Lines() iter.Seq[string]
	Rewind() error
	Err() error
	Close() error
}

// Opener: 打开一个新的、由调用方独占的 LineSource。
// 每次调用返回独立句柄；失败应包装 ErrSourceUnavailable。
type Opener interface {
	ID() SourceID
	Open(ctx context.Context) (LineSource, error)
}
