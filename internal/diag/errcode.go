package diag

import (
	"context"
	"errors"
	"os"
	"time"

	"linepair/pkg/contract"
)

// Code 是最小错误分类代码。
// 仅用于日志/指标汇总，与退出码解耦。
type Code string

const (
	CodeUnknown Code = "unknown"
	CodeInvalid Code = "invalid_argument"
	CodeIO      Code = "io"
	CodeNoInput Code = "no_input"
	CodeNoMatch Code = "no_match"
	CodeCancel  Code = "cancel"
)

// Classify 将错误归为最小分类。
// 说明：仅依赖哨兵错误与标准库错误类型，不做字符串匹配。
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	// 取消/超时优先
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	if errors.Is(err, contract.ErrInvalidArgument) {
		return CodeInvalid
	}
	if errors.Is(err, contract.ErrNoParsableInput) {
		return CodeNoInput
	}
	if errors.Is(err, contract.ErrNoSatisfyingPair) {
		return CodeNoMatch
	}
	if errors.Is(err, contract.ErrSourceUnavailable) {
		return CodeIO
	}
	var perr *os.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	return CodeUnknown
}

// NowUTC 返回 RFC3339 UTC 时间字符串。
func NowUTC() string { return time.Now().UTC().Format(time.RFC3339) }
