package config

import "encoding/json"

// DefaultTemplateConfig 返回一个“可运行”的默认配置模板：
// - 默认输入为 STDIN（"-"），A=0；
// - 组件名采用仓库内置实现；
// - 选项包含全部键，给出中性默认值。
func DefaultTemplateConfig() Config {
	d := Defaults()
	var a int64
	cfg := Config{
		Input:      "-",
		A:          &a,
		Logging:    d.Logging,
		Components: d.Components,
	}
	cfg.Options.Source = json.RawMessage(`{
  "buf_size": 65536,
  "spool_dir": ""
}`)
	// rescan/snapshot 当前无配置项，保持空对象
	cfg.Options.Generator = json.RawMessage(`{}`)
	cfg.Options.Writer = json.RawMessage(`{
  "atomic": true,
  "perm_file": 0,
  "perm_dir": 0
}`)
	return cfg
}
