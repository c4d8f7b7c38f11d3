package lineval

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"linepair/pkg/contract"
)

// UT-LV-01: 逐行解析
func TestTokenize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int64
		ok   bool
	}{
		{"整数", "1", 1, true},
		{"非数字", "a", 0, false},
		{"两侧空白", " 3 ", 3, true},
		{"负数", "-4", -4, true},
		{"部分数字", "5b", 0, false},
		{"空行", "", 0, false},
		{"仅空白", " \t ", 0, false},
		{"CRLF 残留", "7\r", 7, true},
		{"正号", "+8", 8, true},
		{"内部空格", "1 2", 0, false},
		{"小数", "1.5", 0, false},
		{"最大值", "9223372036854775807", 9223372036854775807, true},
		{"越界", "9223372036854775808", 0, false},
		{"十六进制", "0x10", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Tokenize(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

// UT-LV-02: 跳过不可解析行但不重新编号
func TestProduce(t *testing.T) {
	lines := slices.Values([]string{"1", "a", " 3 ", "-4", "5b"})
	got := slices.Collect(Produce(lines))
	want := []contract.LineValue{{Index: 0, Value: 1}, {Index: 2, Value: 3}, {Index: 3, Value: -4}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Produce 结果不符 (-want +got):\n%s", diff)
	}
}

// 重启：再次 range 得到同一序列
func TestProduceRestartable(t *testing.T) {
	seq := Produce(slices.Values([]string{"x", "2", "", "4"}))
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("两次遍历不一致:\n%s", diff)
	}
	assert.Len(t, first, 2)
}

// 提前停止
func TestProduceEarlyStop(t *testing.T) {
	n := 0
	for range Produce(slices.Values([]string{"1", "2", "3"})) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestProduceEmpty(t *testing.T) {
	assert.Empty(t, slices.Collect(Produce(slices.Values([]string{"x", "y"}))))
	assert.Empty(t, slices.Collect(Produce(slices.Values([]string(nil)))))
}
