package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	cfgpkg "linepair/internal/config"
	"linepair/internal/diag"
	"linepair/internal/pipeline"
	"linepair/pkg/contract"
	"linepair/pkg/registry"
)

var pipelineRun = pipeline.Run

// version 由构建时 -ldflags "-X main.version=..." 注入。
var version = "dev"

// 退出码：0 成功；1 运行失败；3 参数/配置错误。
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 3
)

// 默认配置文件（按顺序探测工作目录）。
var defaultConfigFiles = []string{"linepair.json", "linepair.yaml", "linepair.yml"}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// flags 为根命令旗标（最小集）。
type flags struct {
	config      string
	a           int64
	strategy    string
	bufSize     int
	logLevel    string
	logDir      string
	metricsFile string
	output      string
	status      bool
	stats       bool
	json        bool
}

// run 解析参数并执行；返回进程退出码。
func run(args []string, stdout, stderr io.Writer) int {
	code := exitOK
	root := newRootCmd(stdout, stderr, &code)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fprintf(stderr, "参数错误: %v\n", err)
		fprintf(stderr, "用法: %s\n", root.UseLine())
		return exitUsage
	}
	return code
}

func newRootCmd(stdout, stderr io.Writer, code *int) *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:   "linepair [A] [PATH]",
		Short: "查找满足 J = I + A 的行对（和最大者胜）",
		Long: `linepair 逐行读取 PATH（"-" 为 STDIN），取可解析为整数的行，
找出满足 J = I + A 的行对 (i, j)，输出 I+J 最大者的 1 基行号；
并列时取 i 最小者。A 与 PATH 也可来自配置文件或 LINEPAIR_* 环境变量。`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			over, err := cliOverlay(cmd, f, args)
			if err != nil {
				return err
			}
			*code = search(cmd.Context(), f, over, stdout, stderr)
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	fl := root.Flags()
	fl.StringVar(&f.config, "config", "", "配置文件路径（JSON/YAML）；缺省读取 ./linepair.json|.yaml（若存在）")
	fl.Int64Var(&f.a, "a", 0, "目标差值 A（覆盖配置）；给出时位置参数仅为 PATH")
	fl.StringVar(&f.strategy, "strategy", "", "候选生成策略 "+registry.Names(registry.Generator)+"（覆盖配置）")
	fl.IntVar(&f.bufSize, "buf-size", 0, "源读缓冲区字节数（覆盖 options.source.buf_size）")
	fl.StringVar(&f.logLevel, "log-level", "", "日志等级 debug|info|warn|error（覆盖配置）")
	fl.StringVar(&f.logDir, "log-dir", "", `日志目录；"-" 输出到 stderr（覆盖配置）`)
	fl.StringVar(&f.metricsFile, "metrics-file", "", "运行结束后写出 Prometheus 文本指标")
	fl.StringVarP(&f.output, "output", "o", "", "结果写入文件（原子替换）；缺省写到 stdout")
	fl.BoolVar(&f.status, "status", true, "终端状态提示（stderr）。TTY 动态刷新；非 TTY 打点输出")
	fl.BoolVar(&f.stats, "stats", false, "在结果后输出扫描计数")
	fl.BoolVar(&f.json, "json", false, "以 JSON 输出结果")

	root.AddCommand(newInitConfigCmd(stdout, stderr, code), newVersionCmd(stdout))
	return root
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "打印版本",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fprintf(stdout, "linepair %s\n", version)
		},
	}
}

// cliOverlay 将位置参数与显式设置的旗标转换为 Config 覆盖。
// 未显式设置的旗标不参与覆盖，由 Changed 判断。
// 给出 --a 时唯一的位置参数视为 PATH。
func cliOverlay(cmd *cobra.Command, f flags, args []string) (cfgpkg.Config, error) {
	var over cfgpkg.Config
	fl := cmd.Flags()
	if fl.Changed("a") {
		if len(args) > 1 {
			return over, errors.New("已通过 --a 给出 A，只接受一个位置参数 PATH")
		}
		v := f.a
		over.A = &v
		if len(args) == 1 {
			over.Input = args[0]
		}
	} else {
		if len(args) > 0 {
			v, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil {
				return over, fmt.Errorf("A %q 不是整数", args[0])
			}
			over.A = &v
		}
		if len(args) > 1 {
			over.Input = args[1]
		}
	}
	if fl.Changed("strategy") {
		over.Components.Generator = f.strategy
	}
	if fl.Changed("log-level") {
		over.Logging.Level = f.logLevel
	}
	if fl.Changed("log-dir") {
		over.Logging.Dir = f.logDir
	}
	if fl.Changed("metrics-file") {
		over.Metrics.File = f.metricsFile
	}
	if fl.Changed("output") {
		over.Output = f.output
	}
	return over, nil
}

// search 完成配置合并、装配与一次运行，返回退出码。
func search(ctx context.Context, f flags, overCLI cfgpkg.Config, stdout, stderr io.Writer) int {
	start := time.Now()
	corrID := uuid.NewString()
	// 在任何 ENV 读取前，尝试加载工作目录下的 .env（不覆盖已有 ENV）。
	_ = loadDotEnv(".env")

	cfg, err := resolveConfig(f, overCLI)
	if err != nil {
		fprintf(stderr, "配置解析失败: %v\n", err)
		return exitUsage
	}
	if err := cfgpkg.Validate(cfg); err != nil {
		fprintf(stderr, "配置校验失败: %v\n", err)
		// 提示打印有效配置，便于诊断
		_ = dumpConfig(stderr, cfg)
		return exitUsage
	}

	logger := newLogger(corrID, cfg.Logging, stderr)
	defer logger.Close()

	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		fprintf(stderr, "装配失败: %v\n", err)
		logger.Error("config", string(diag.Classify(err)), "assemble failed", &start)
		return exitUsage
	}
	sink, err := cfgpkg.AssembleWriter(cfg)
	if err != nil {
		fprintf(stderr, "装配失败: %v\n", err)
		logger.Error("config", string(diag.Classify(err)), "assemble writer failed", &start)
		return exitUsage
	}
	// fs 源可能持有 STDIN 暂存文件
	if c, ok := comp.Source.(io.Closer); ok {
		defer c.Close()
	}

	// 终端信息提示（非日志）：按 CLI 启用，默认开启
	term := diag.NewTerminal(stderr, f.status)
	diag.SetTerminal(term)
	defer diag.SetTerminal(nil)

	logger.DebugStart("config", "effective", string(comp.Source.ID()), map[string]string{
		"a":         strconv.FormatInt(set.A, 10),
		"source":    cfg.Components.Source,
		"generator": set.Strategy,
		"log_level": cfg.Logging.Level,
		"log_dir":   cfg.Logging.Dir,
		"metrics":   cfg.Metrics.File,
	})

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	res, stats, err := pipelineRun(ctx, comp, set, logger)
	if werr := diag.WriteMetrics(cfg.Metrics.File); werr != nil {
		fprintf(stderr, "提示：指标写出失败（已跳过）：%v\n", werr)
	}
	if err != nil {
		term.RunFinish(false, time.Since(start))
		if !errors.Is(err, context.Canceled) {
			fprintf(stderr, "运行失败: %v\n", err)
		}
		if errors.Is(err, contract.ErrInvalidArgument) {
			return exitUsage
		}
		return exitFailure
	}
	term.RunFinish(true, time.Since(start))
	if err := emit(ctx, sink, stdout, res, stats, f); err != nil {
		fprintf(stderr, "输出失败: %v\n", err)
		logger.Error("output", string(diag.Classify(err)), "write result failed", &start)
		return exitFailure
	}
	logger.InfoFinish("output", "result emitted", start, 1)
	return exitOK
}

// resolveConfig 合并顺序：默认 < 文件/LINEPAIR_CONFIG_JSON < ENV < CLI。
func resolveConfig(f flags, overCLI cfgpkg.Config) (cfgpkg.Config, error) {
	cfg := cfgpkg.Defaults()

	var cfgJSON []byte
	if s := os.Getenv("LINEPAIR_CONFIG_JSON"); s != "" {
		cfgJSON = []byte(s)
	}
	path := f.config
	if path == "" {
		path = os.Getenv("LINEPAIR_CONFIG_FILE")
	}
	if path == "" && len(cfgJSON) == 0 {
		for _, p := range defaultConfigFiles {
			if st, err := os.Stat(p); err == nil && !st.IsDir() {
				path = p
				break
			}
		}
	}
	switch {
	case len(cfgJSON) > 0:
		base, err := cfgpkg.LoadJSON("", cfgJSON)
		if err != nil {
			return cfg, fmt.Errorf("LINEPAIR_CONFIG_JSON: %w", err)
		}
		cfg = cfgpkg.Merge(cfg, base)
	case path != "":
		base, err := cfgpkg.LoadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
		cfg = cfgpkg.Merge(cfg, base)
	}

	overEnv, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		return cfg, err
	}
	cfg = cfgpkg.Merge(cfg, overEnv)
	cfg = cfgpkg.Merge(cfg, overCLI)

	if f.bufSize > 0 {
		raw, err := cfgpkg.PatchOption(cfg.Options.Source, "buf_size", f.bufSize)
		if err != nil {
			return cfg, err
		}
		cfg.Options.Source = raw
	}
	return cfg, nil
}

// newLogger: 目录为 "-" 时写到给定 stderr，否则写滚动文件。
func newLogger(corrID string, lg cfgpkg.Logging, stderr io.Writer) *diag.Logger {
	if strings.TrimSpace(lg.Dir) == "-" {
		return diag.NewLoggerTo(corrID, lg.Level, stderr)
	}
	return diag.NewLogger(corrID, lg.Level, lg.Dir)
}

type jsonResult struct {
	contract.Result
	Stats *contract.Stats `json:"stats,omitempty"`
}

// emit 输出结果：sink 为 nil 时写到 stdout，否则整体渲染后交给 sink。
func emit(ctx context.Context, sink contract.Writer, stdout io.Writer, res contract.Result, st contract.Stats, f flags) error {
	if sink == nil {
		return printResult(stdout, res, st, f)
	}
	var buf bytes.Buffer
	if err := printResult(&buf, res, st, f); err != nil {
		return err
	}
	return sink.Write(ctx, &buf)
}

func printResult(w io.Writer, res contract.Result, st contract.Stats, f flags) error {
	if f.json {
		out := jsonResult{Result: res}
		if f.stats {
			out.Stats = &st
		}
		return json.NewEncoder(w).Encode(out)
	}
	if _, err := fmt.Fprintf(w, "Lines: (%d, %d)\n", res.LineI, res.LineJ); err != nil {
		return err
	}
	if f.stats {
		_, err := fmt.Fprintf(w, "Stats: lines=%d parsed=%d candidates=%d matches=%d scans=%d\n",
			st.Lines, st.Parsed, st.Candidates, st.Matches, st.Scans)
		return err
	}
	return nil
}

func fprintf(w io.Writer, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

func dumpConfig(w io.Writer, c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	_, _ = io.WriteString(w, "有效配置:\n")
	_, _ = w.Write(append(b, '\n'))
	return nil
}
