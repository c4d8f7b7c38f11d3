package contract

import (
	"context"
	"iter"
)

// Generator: 候选对生成器（外层 × 内层的完整笛卡尔积）。
// 约束：
//  1. 外层主序：对外层每一项，内层按原始行序完整产出一遍；
//  2. 外层同样按原始行序；
//  3. I/O 失败以单个 (零值, err) 结束序列，err 包装 ErrSourceUnavailable；
//  4. 序列结束（含消费方提前停止）时释放其打开的全部句柄；
//  5. 不在内部起并发。
type Generator interface {
	Generate(ctx context.Context, src Opener) iter.Seq2[Candidate, error]
}
