package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linepair/internal/diag"
	"linepair/internal/pipeline"
	"linepair/pkg/contract"
	sfs "linepair/plugins/source/filesystem"
)

const sample = "1\n3\n 4\n dg\n -5\n2\n"

// setup 切换到临时工作目录并写入样例输入，返回其路径。
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	p := filepath.Join(dir, "nums.txt")
	require.NoError(t, os.WriteFile(p, []byte(sample), 0o644))
	return p
}

func runCLI(args ...string) (int, string, string) {
	var out, errb bytes.Buffer
	code := run(args, &out, &errb)
	return code, out.String(), errb.String()
}

// stubRun 替换 pipelineRun；返回记录到的 Settings。
func stubRun(t *testing.T, res contract.Result, err error) *pipeline.Settings {
	t.Helper()
	var got pipeline.Settings
	orig := pipelineRun
	pipelineRun = func(ctx context.Context, comp pipeline.Components, set pipeline.Settings, logger *diag.Logger) (contract.Result, contract.Stats, error) {
		got = set
		return res, contract.Stats{}, err
	}
	t.Cleanup(func() { pipelineRun = orig })
	return &got
}

func TestRunSuccess(t *testing.T) {
	p := setup(t)
	code, out, _ := runCLI("1", p, "--status=false")
	require.Equal(t, 0, code)
	assert.Equal(t, "Lines: (2, 3)\n", out)
	// 默认日志目录 logs/
	_, err := os.Stat(filepath.Join("logs", "linepair-current.log"))
	assert.NoError(t, err)
}

func TestRunSnapshotJSONStats(t *testing.T) {
	p := setup(t)
	code, out, _ := runCLI("--strategy", "snapshot", "--json", "--stats", "--log-dir", "-", "--status=false", "1", p)
	require.Equal(t, 0, code)
	var got struct {
		LineI int             `json:"line_i"`
		LineJ int             `json:"line_j"`
		Stats *contract.Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.LineI)
	assert.Equal(t, 3, got.LineJ)
	require.NotNil(t, got.Stats)
	assert.Equal(t, int64(1), got.Stats.Scans)
	assert.Equal(t, int64(25), got.Stats.Candidates)
}

func TestRunStatsText(t *testing.T) {
	p := setup(t)
	code, out, _ := runCLI("--stats", "--log-dir=-", "--status=false", "1", p)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Stats: lines=36 parsed=5 candidates=25 matches=3 scans=6")
}

func TestRunStdin(t *testing.T) {
	setup(t)
	old := sfs.Stdin
	sfs.Stdin = strings.NewReader("5\n")
	defer func() { sfs.Stdin = old }()
	code, out, _ := runCLI("--log-dir=-", "--status=false", "0", "-")
	require.Equal(t, 0, code)
	assert.Equal(t, "Lines: (1, 1)\n", out)
}

func TestRunFlagA(t *testing.T) {
	p := setup(t)
	code, out, _ := runCLI("--a", "1", "--log-dir=-", "--status=false", p)
	require.Equal(t, 0, code)
	assert.Equal(t, "Lines: (2, 3)\n", out)

	code, _, _ = runCLI("--a", "1", "--log-dir=-", "1", p)
	assert.Equal(t, 3, code)
}

func TestRunUsageErrors(t *testing.T) {
	p := setup(t)
	cases := map[string][]string{
		"A not integer":  {"abc", p},
		"negative A":     {"--log-dir=-", "--", "-1", p},
		"negative flag":  {"--a=-1", "--log-dir=-", p},
		"missing A":      {},
		"missing path":   {"1"},
		"too many args":  {"1", p, "extra"},
		"unknown flag":   {"--nope", "1", p},
		"bad strategy":   {"--strategy", "parallel", "1", p},
		"bad log level":  {"--log-level", "trace", "1", p},
		"config missing": {"--config", "missing.json", "1", p},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			code, out, errOut := runCLI(args...)
			assert.Equal(t, 3, code, errOut)
			assert.Empty(t, out)
		})
	}
}

func TestRunFailures(t *testing.T) {
	p := setup(t)
	noise := filepath.Join(filepath.Dir(p), "noise.txt")
	require.NoError(t, os.WriteFile(noise, []byte("x\ny\n"), 0o644))
	cases := []struct {
		name string
		args []string
		msg  string
	}{
		{"no match", []string{"100", p}, contract.ErrNoSatisfyingPair.Error()},
		{"no parsable", []string{"1", noise}, contract.ErrNoParsableInput.Error()},
		{"missing file", []string{"1", filepath.Join(filepath.Dir(p), "nope.txt")}, contract.ErrSourceUnavailable.Error()},
		{"directory", []string{"1", filepath.Dir(p)}, contract.ErrSourceUnavailable.Error()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, out, errOut := runCLI(append([]string{"--log-dir=-", "--status=false"}, tc.args...)...)
			assert.Equal(t, 1, code)
			assert.Empty(t, out)
			assert.Contains(t, errOut, "运行失败")
			assert.Contains(t, errOut, tc.msg)
		})
	}
}

func TestRunPipelineError(t *testing.T) {
	p := setup(t)
	stubRun(t, contract.Result{}, errors.New("boom"))
	code, _, _ := runCLI("--log-dir=-", "1", p)
	assert.Equal(t, 1, code)

	stubRun(t, contract.Result{}, contract.ErrInvalidArgument)
	code, _, _ = runCLI("--log-dir=-", "1", p)
	assert.Equal(t, 3, code)
}

func TestRunWithConfigFile(t *testing.T) {
	p := setup(t)
	y := "input: " + p + "\na: 1\ncomponents:\n  generator: snapshot\nlogging:\n  dir: \"-\"\n"
	require.NoError(t, os.WriteFile("custom.yaml", []byte(y), 0o644))
	set := stubRun(t, contract.Result{LineI: 9, LineJ: 9}, nil)
	code, out, _ := runCLI("--config", "custom.yaml", "--status=false")
	require.Equal(t, 0, code)
	assert.Equal(t, "Lines: (9, 9)\n", out)
	assert.Equal(t, "snapshot", set.Strategy)
	assert.Equal(t, int64(1), set.A)
}

// 工作目录下的 linepair.json 作为默认配置；CLI 覆盖其 A
func TestRunDefaultConfigFile(t *testing.T) {
	p := setup(t)
	cfg := map[string]any{"input": p, "a": 100, "logging": map[string]string{"dir": "-"}}
	b, _ := json.Marshal(cfg)
	require.NoError(t, os.WriteFile("linepair.json", b, 0o644))

	code, _, _ := runCLI("--status=false")
	assert.Equal(t, 1, code)
	code, out, _ := runCLI("--status=false", "--a", "1")
	require.Equal(t, 0, code)
	assert.Equal(t, "Lines: (2, 3)\n", out)
}

func TestRunEnvConfig(t *testing.T) {
	p := setup(t)
	t.Setenv("LINEPAIR_CONFIG_JSON", `{"input":"`+filepath.ToSlash(p)+`","a":5}`)
	t.Setenv("LINEPAIR_A", "1")
	t.Setenv("LINEPAIR_LOGGING_DIR", "-")
	t.Setenv("LINEPAIR_COMPONENTS_GENERATOR", "snapshot")
	set := stubRun(t, contract.Result{LineI: 2, LineJ: 3}, nil)
	code, _, _ := runCLI("--status=false")
	require.Equal(t, 0, code)
	assert.Equal(t, int64(1), set.A)
	assert.Equal(t, "snapshot", set.Strategy)

	t.Setenv("LINEPAIR_A", "x")
	code, _, _ = runCLI("--status=false")
	assert.Equal(t, 3, code)
}

func TestRunBadOptions(t *testing.T) {
	p := setup(t)
	t.Setenv("LINEPAIR_OPTIONS_SOURCE_JSON", `{"unknown":1}`)
	code, _, errOut := runCLI("--log-dir=-", "1", p)
	assert.Equal(t, 3, code)
	assert.Contains(t, errOut, "装配失败")
}

func TestRunBufSize(t *testing.T) {
	p := setup(t)
	code, out, _ := runCLI("--buf-size", "16", "--log-dir=-", "--status=false", "1", p)
	require.Equal(t, 0, code)
	assert.Equal(t, "Lines: (2, 3)\n", out)
}

func TestRunOutputFile(t *testing.T) {
	p := setup(t)
	dest := filepath.Join(filepath.Dir(p), "res", "out.json")
	code, out, _ := runCLI("-o", dest, "--json", "--log-dir=-", "--status=false", "1", p)
	require.Equal(t, 0, code)
	assert.Empty(t, out)
	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.JSONEq(t, `{"line_i":2,"line_j":3}`, string(b))

	// 目录形式的输出路径在运行前即被拒绝
	code, _, _ = runCLI("-o", filepath.Dir(p)+"/", "--log-dir=-", "1", p)
	assert.Equal(t, 3, code)
}

func TestRunMetricsFile(t *testing.T) {
	p := setup(t)
	mf := filepath.Join(filepath.Dir(p), "m.prom")
	code, _, _ := runCLI("--metrics-file", mf, "--log-dir=-", "--status=false", "1", p)
	require.Equal(t, 0, code)
	b, err := os.ReadFile(mf)
	require.NoError(t, err)
	assert.Contains(t, string(b), "linepair_op_total")
	assert.Contains(t, string(b), "linepair_scans_total")
}

func TestRunStatusLines(t *testing.T) {
	p := setup(t)
	code, _, errOut := runCLI("--log-dir=-", "1", p)
	require.Equal(t, 0, code)
	assert.Contains(t, errOut, "[run] nums.txt | A=1 | 策略=rescan")
	assert.Contains(t, errOut, "[ok] nums.txt")
}

func TestInitConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	out := filepath.Join(dir, "out")
	code, stdout, _ := runCLI("init-config", out)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "linepair.json")
	_, err := os.Stat(filepath.Join(out, "linepair.json"))
	require.NoError(t, err)
	env, err := os.ReadFile(filepath.Join(out, ".env"))
	require.NoError(t, err)
	assert.Contains(t, string(env), "LINEPAIR_A=")

	// 已存在：不覆盖，返回 3
	code, _, _ = runCLI("init-config", out)
	assert.Equal(t, 3, code)

	// 默认当前目录
	code, _, _ = runCLI("init-config")
	require.Equal(t, 0, code)
	_, err = os.Stat(filepath.Join(dir, "linepair.json"))
	assert.NoError(t, err)
}

func TestInitConfigStdout(t *testing.T) {
	t.Chdir(t.TempDir())
	code, out, _ := runCLI("init-config", "-")
	require.Equal(t, 0, code)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, "-", m["input"])
}

func TestVersion(t *testing.T) {
	code, out, _ := runCLI("version")
	require.Equal(t, 0, code)
	assert.Equal(t, "linepair dev\n", out)
}

func TestLoadDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	content := "# c\nexport LINEPAIR_TEST_X=\"a\\tb\"\nLINEPAIR_TEST_Y='q'\nLINEPAIR_TEST_KEEP=new\nLINEPAIR_TEST_EMPTY=\nbad\n"
	require.NoError(t, os.WriteFile(".env", []byte(content), 0o644))
	for _, k := range []string{"LINEPAIR_TEST_X", "LINEPAIR_TEST_Y", "LINEPAIR_TEST_EMPTY"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("LINEPAIR_TEST_KEEP", "old")

	require.NoError(t, loadDotEnv(".env"))
	assert.Equal(t, "a\tb", os.Getenv("LINEPAIR_TEST_X"))
	assert.Equal(t, "q", os.Getenv("LINEPAIR_TEST_Y"))
	assert.Equal(t, "old", os.Getenv("LINEPAIR_TEST_KEEP"))
	_, ok := os.LookupEnv("LINEPAIR_TEST_EMPTY")
	assert.False(t, ok)
	assert.NoError(t, loadDotEnv("missing.env"))
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "x", unquote(`"x"`))
	assert.Equal(t, `a\nb`, unquote(`'a\nb'`))
	assert.Equal(t, "a\nb", unquote(`"a\nb"`))
	assert.Equal(t, `"x`, unquote(`"x`))
	assert.Equal(t, "", unquote(""))
}
