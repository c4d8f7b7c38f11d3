package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults 返回带有安全默认值的 Config 雏形。
// 注意：A 不设默认（必须由文件/ENV/CLI 提供）。
func Defaults() Config {
	return Config{
		Logging: Logging{Level: "info", Dir: "logs"},
		Components: Components{
			Source:    "fs",
			Generator: "rescan",
		},
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
func LoadJSON(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadYAML 解析 YAML 配置：先转为等价 JSON，再走严格 JSON 解码，
// 使两种格式的字段集合与未知字段规则完全一致。
func LoadYAML(raw []byte) (Config, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Config{}, fmt.Errorf("yaml: %w", err)
	}
	if doc == nil {
		return Config{}, errors.New("yaml: empty document")
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return Config{}, fmt.Errorf("yaml: %w", err)
	}
	return LoadJSON("", b)
}

// LoadFile 按扩展名选择格式：.yaml/.yml 为 YAML，其余按 JSON。
func LoadFile(path string) (Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		return LoadYAML(raw)
	default:
		return LoadJSON(path, nil)
	}
}

// Merge 按优先级合并（后者覆盖前者）。
// 仅标量/字符串/原样 JSON 为“替换”；不做深度合并。
func Merge(base, over Config) Config {
	out := base
	if strings.TrimSpace(over.Input) != "" {
		out.Input = strings.TrimSpace(over.Input)
	}
	// A 的 0 具有语义，仅以 nil 表示“未覆盖”
	if over.A != nil {
		v := *over.A
		out.A = &v
	}
	if strings.TrimSpace(over.Logging.Level) != "" {
		out.Logging.Level = strings.TrimSpace(over.Logging.Level)
	}
	if strings.TrimSpace(over.Logging.Dir) != "" {
		out.Logging.Dir = strings.TrimSpace(over.Logging.Dir)
	}
	if strings.TrimSpace(over.Metrics.File) != "" {
		out.Metrics.File = strings.TrimSpace(over.Metrics.File)
	}
	if strings.TrimSpace(over.Output) != "" {
		out.Output = strings.TrimSpace(over.Output)
	}

	// 组件名（空不覆盖）
	if over.Components.Source != "" {
		out.Components.Source = over.Components.Source
	}
	if over.Components.Generator != "" {
		out.Components.Generator = over.Components.Generator
	}

	// Options（完整替换对应键）
	if len(over.Options.Source) > 0 {
		out.Options.Source = cloneRaw(over.Options.Source)
	}
	if len(over.Options.Generator) > 0 {
		out.Options.Generator = cloneRaw(over.Options.Generator)
	}
	if len(over.Options.Writer) > 0 {
		out.Options.Writer = cloneRaw(over.Options.Writer)
	}
	return out
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 规则：前缀 LINEPAIR_；集合之外的键忽略。
// 支持：INPUT, A, OUTPUT, COMPONENTS_{SOURCE,GENERATOR}, LOGGING_{LEVEL,DIR}, METRICS_FILE,
// OPTIONS_{SOURCE,GENERATOR,WRITER}_JSON。
// LINEPAIR_CONFIG_FILE / LINEPAIR_CONFIG_JSON 选择配置来源，由调用方处理。
func EnvOverlay(environ []string) (Config, error) {
	const prefix = "LINEPAIR_"
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, prefix) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(prefix) {
			continue
		}
		key := kv[len(prefix):eq]
		val := kv[eq+1:]
		switch key {
		case "INPUT":
			over.Input = strings.TrimSpace(val)
		case "A":
			if strings.TrimSpace(val) == "" {
				continue
			}
			v, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
			if err != nil {
				return over, fmt.Errorf("env %sA: %w", prefix, err)
			}
			over.A = &v
		case "OUTPUT":
			over.Output = strings.TrimSpace(val)
		case "COMPONENTS_SOURCE":
			over.Components.Source = strings.TrimSpace(val)
		case "COMPONENTS_GENERATOR":
			over.Components.Generator = strings.TrimSpace(val)
		case "LOGGING_LEVEL":
			over.Logging.Level = strings.TrimSpace(val)
		case "LOGGING_DIR":
			over.Logging.Dir = strings.TrimSpace(val)
		case "METRICS_FILE":
			over.Metrics.File = strings.TrimSpace(val)
		case "OPTIONS_SOURCE_JSON":
			// 原样 JSON；空值视为未设置，避免清空现有配置
			if strings.TrimSpace(val) != "" {
				over.Options.Source = json.RawMessage(val)
			}
		case "OPTIONS_GENERATOR_JSON":
			if strings.TrimSpace(val) != "" {
				over.Options.Generator = json.RawMessage(val)
			}
		case "OPTIONS_WRITER_JSON":
			if strings.TrimSpace(val) != "" {
				over.Options.Writer = json.RawMessage(val)
			}
		}
	}
	return over, nil
}

// PatchOption 在原样 JSON 对象上设置单个键并返回新副本（CLI 旗标覆盖用）。
// raw 为空时视为 {}；raw 不是对象时报错。
func PatchOption(raw json.RawMessage, key string, v any) (json.RawMessage, error) {
	m := map[string]json.RawMessage{}
	if t := bytes.TrimSpace(raw); len(t) > 0 && string(t) != "null" {
		if err := json.Unmarshal(t, &m); err != nil {
			return nil, fmt.Errorf("options: %w", err)
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	m[key] = b
	return json.Marshal(m)
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
