// Package lineval 将原始文本行转换为 (行号, 整数) 序列。
// 纯函数、无 I/O；是否可重启取决于传入的行序列本身。
package lineval

import (
	"iter"
	"strconv"
	"strings"

	"linepair/pkg/contract"
)

// Tokenize 去除首尾空白后按十进制解析为 int64。
// 空串、非数字、部分数字（如 "5b"）与越界均返回 ok=false，不报错。
func Tokenize(raw string) (int64, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Produce 以零基序号枚举 lines，仅产出可解析的行。
// 跳过的行仍占用序号：Index 始终对应原始行位置。
// 惰性求值；每次 range 都从 lines 的当前起点重新计数。
func Produce(lines iter.Seq[string]) iter.Seq[contract.LineValue] {
	return func(yield func(contract.LineValue) bool) {
		i := 0
		for line := range lines {
			if v, ok := Tokenize(line); ok {
				if !yield(contract.LineValue{Index: i, Value: v}) {
					return
				}
			}
			i++
		}
	}
}
