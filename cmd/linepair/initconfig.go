package main

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "linepair/internal/config"
)

// newInitConfigCmd: 在 DIR（默认当前目录）生成 linepair.json 与 .env 模板；已存在则不覆盖。
func newInitConfigCmd(stdout, stderr io.Writer, code *int) *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [DIR]",
		Short: "生成默认配置 linepair.json 与 .env 模板（不覆盖已有文件）",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			dir := "."
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				dir = strings.TrimSpace(args[0])
			}
			*code = initConfig(dir, stdout, stderr)
		},
	}
}

func initConfig(dir string, stdout, stderr io.Writer) int {
	if dir == "-" {
		if err := writeConfig("-", stdout, cfgpkg.DefaultTemplateConfig()); err != nil {
			fprintf(stderr, "生成默认配置失败: %v\n", err)
			return exitUsage
		}
		return exitOK
	}
	// 创建目录（若不存在）
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fprintf(stderr, "生成默认配置失败: %v\n", err)
		return exitUsage
	}
	cfgPath := filepath.Join(dir, defaultConfigFiles[0])
	if err := writeConfig(cfgPath, stdout, cfgpkg.DefaultTemplateConfig()); err != nil {
		fprintf(stderr, "生成默认配置失败: %v\n", err)
		return exitUsage
	}
	// 生成 .env 模板（不覆盖已存在文件）。
	if err := writeDotEnv(filepath.Join(dir, ".env")); err != nil {
		fprintf(stderr, "提示：.env 生成失败（已跳过）：%v\n", err)
	}
	fprintf(stdout, "已生成 %s\n", cfgPath)
	return exitOK
}

// writeConfig: path 为 "-" 时写到 stdout；否则以 O_EXCL 创建，不覆盖已存在文件。
func writeConfig(path string, stdout io.Writer, c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = stdout.Write(append(b, '\n'))
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(b, '\n')); err != nil {
		return err
	}
	return nil
}

// loadDotEnv 读取简单的 .env 文件格式并注入进程环境。
// 规则：
// - 忽略不存在的文件；无法读取时返回错误（但调用处可忽略）。
// - 跳过空行与以 # 开头的行；支持可选的前缀 "export ".
// - 仅按首个 '=' 分割；key 为左侧去空白；value 去首尾空白；
// - 若 value 被成对的单/双引号包裹，则去除外层引号；双引号内常见转义 \n/\t/\\/\" 作最小处理。
// - 空值不注入；不覆盖已存在的环境变量（保持系统/调用者优先）。
func loadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := unquote(strings.TrimSpace(line[eq+1:]))
		if key == "" || val == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, val)
	}
	return s.Err()
}

func unquote(val string) string {
	if len(val) < 2 {
		return val
	}
	q := val[0]
	if (q != '\'' && q != '"') || val[len(val)-1] != q {
		return val
	}
	val = val[1 : len(val)-1]
	if q == '"' {
		r := strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\r`, "\r", `\"`, `"`, `\\`, `\`)
		val = r.Replace(val)
	}
	return val
}

// dotEnvKeys 为 .env 模板列出的全部覆盖项。
var dotEnvKeys = [][2]string{
	{"# 配置来源（二选一）", ""},
	{"LINEPAIR_CONFIG_FILE", ""},
	{"LINEPAIR_CONFIG_JSON", ""},
	{"# 运行参数覆盖", ""},
	{"LINEPAIR_INPUT", ""},
	{"LINEPAIR_A", ""},
	{"LINEPAIR_OUTPUT", ""},
	{"# 组件选择", ""},
	{"LINEPAIR_COMPONENTS_SOURCE", ""},
	{"LINEPAIR_COMPONENTS_GENERATOR", ""},
	{"LINEPAIR_OPTIONS_SOURCE_JSON", ""},
	{"LINEPAIR_OPTIONS_GENERATOR_JSON", ""},
	{"LINEPAIR_OPTIONS_WRITER_JSON", ""},
	{"# 日志与指标", ""},
	{"LINEPAIR_LOGGING_LEVEL", ""},
	{"LINEPAIR_LOGGING_DIR", ""},
	{"LINEPAIR_METRICS_FILE", ""},
}

// writeDotEnv 生成 .env 模板（若文件已存在则跳过）。
func writeDotEnv(path string) error {
	var b strings.Builder
	b.WriteString("# linepair .env 模板（由 init-config 生成）\n")
	b.WriteString("# 优先级：CLI > ENV(.env) > 配置文件\n")
	b.WriteString("# 空值表示未设置。\n")
	for _, kv := range dotEnvKeys {
		if strings.HasPrefix(kv[0], "#") {
			b.WriteString("\n" + kv[0] + "\n")
			continue
		}
		b.WriteString(kv[0] + "=" + kv[1] + "\n")
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	_, err = f.WriteString(b.String())
	return err
}
