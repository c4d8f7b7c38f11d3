package contract

import "errors"

// 运行期最小错误分类。调用方通过 errors.Is 判别，细节经 %w 附带。
var (
	// ErrInvalidArgument: 参数越界（例如 A < 0），在任何扫描开始前返回。
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrSourceUnavailable: 源无法打开、回绕或读取。
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrNoParsableInput: 外层扫描未产生任何整数行。
	ErrNoParsableInput = errors.New("no integer values loaded from source")
	// ErrNoSatisfyingPair: 存在整数行，但没有候选对满足 J = I + A。
	ErrNoSatisfyingPair = errors.New("no pair satisfies the equation: J = I + A")
)
