package config

import (
	"encoding/json"
)

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON/YAML 使用 snake_case；未知字段在解析期失败。
type Config struct {
	// Input: 输入路径；"-" 表示 STDIN。memory 源可留空。
	Input string `json:"input"`
	// A: 目标差值 J - I。指针以区分“未设置”与显式 0。
	A       *int64  `json:"a" validate:"required"`
	Logging Logging `json:"logging"`
	Metrics Metrics `json:"metrics"`
	// Output: 结果写入的文件；空则写到 stdout。
	Output string `json:"output"`

	// 组件名选择（空则使用默认名）。
	Components Components `json:"components"`

	// 各组件 Options 子树，原样 JSON 传入工厂。
	Options Options `json:"options"`
}

// Logging: 日志等级与滚动目录（"-" 输出到 stderr）。
type Logging struct {
	Level string `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir   string `json:"dir"`
}

// Metrics: 运行结束时写出 Prometheus 文本指标；File 为空不写。
type Metrics struct {
	File string `json:"file"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Source    string `json:"source"`
	Generator string `json:"generator"`
}

// Options: 各组件的原样 JSON Options。
type Options struct {
	Source    json.RawMessage `json:"source"`
	Generator json.RawMessage `json:"generator"`
	Writer    json.RawMessage `json:"writer"`
}
