package contract

import (
	"context"
	"io"
)

// Writer: 将格式化后的结果持久化到目标介质（当前为单个文件）。
// 约束：
//  1. 单写者；
//  2. 流式写入，按字节透传，不读取/修改内容；
//  3. ctx 取消需尽快返回；失败不得留下半截目标文件；
//  4. 错误直接上抛（不做重试/回退）。
type Writer interface {
	Write(ctx context.Context, r io.Reader) error
}
