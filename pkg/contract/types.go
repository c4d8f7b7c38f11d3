package contract

// SourceID: 逻辑输入源标识（通常为路径，需规范化，跨平台一致）。
type SourceID string

// LineValue: 单行解析得到的整数及其行位置。
// 约束：
// - Index 为零基原始行号（不因跳过不可解析行而重新编号）；
// - 每次遍历同一源时产生的 LineValue 集合完全相同。
type LineValue struct {
	Index int
	Value int64
}

// Candidate: 有序候选对（Outer 来自外层扫描，Inner 来自内层扫描）。
// 自配对（Outer.Index == Inner.Index）同样合法。
type Candidate struct {
	Outer LineValue
	Inner LineValue
}

// Result: 胜出候选对映射后的 1 基行号。
type Result struct {
	LineI int `json:"line_i" yaml:"line_i"`
	LineJ int `json:"line_j" yaml:"line_j"`
}

// Stats: 单次运行的计数器（仅用于诊断，不影响结果）。
type Stats struct {
	// Lines: 所有遍历累计读取的原始行数（rescan 下含每次内层回绕）。
	Lines int64 `json:"lines"`
	// Parsed: 外层扫描中出现过的 LineValue 数。
	Parsed int64 `json:"parsed"`
	// Candidates: 过滤前的候选对数（Parsed 的平方）。
	Candidates int64 `json:"candidates"`
	// Matches: 满足关系的候选对数。
	Matches int64 `json:"matches"`
	// Scans: 对源的完整遍历次数（外层 + 内层）。
	Scans int64 `json:"scans"`
}
