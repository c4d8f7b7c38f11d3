package registry

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"linepair/pkg/contract"
	grescan "linepair/plugins/generator/rescan"
	gsnap "linepair/plugins/generator/snapshot"
	sfs "linepair/plugins/source/filesystem"
	smem "linepair/plugins/source/memory"
	wfs "linepair/plugins/writer/filesystem"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewSource 工厂签名：input 为输入路径（"-" 表示 STDIN），raw 为原样 JSON Options。
type NewSource func(input string, raw json.RawMessage) (contract.Opener, error)

// NewGenerator 工厂签名：接收原样 JSON Options。
type NewGenerator func(raw json.RawMessage) (contract.Generator, error)

// NewWriter 工厂签名：path 为目标路径，raw 为原样 JSON Options。
type NewWriter func(path string, raw json.RawMessage) (contract.Writer, error)

// Source 工厂注册表（显式、零反射）。
var Source = map[string]NewSource{
	// fs: 常规文件 / STDIN（落盘后回绕）
	"fs": func(input string, raw json.RawMessage) (contract.Opener, error) {
		var opts sfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return sfs.New(input, &opts), nil
	},
	// memory: 行内容直接来自 Options.lines；input 仅作标识
	"memory": func(input string, raw json.RawMessage) (contract.Opener, error) {
		var opts smem.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return smem.NewNamed(input, opts.Lines), nil
	},
}

// Generator 工厂注册表。
var Generator = map[string]NewGenerator{
	// rescan: O(1) 内存，内层每项回绕
	"rescan": func(raw json.RawMessage) (contract.Generator, error) {
		var opts grescan.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return grescan.New(opts), nil
	},
	// snapshot: 单次读取，内存笛卡尔积
	"snapshot": func(raw json.RawMessage) (contract.Generator, error) {
		var opts gsnap.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return gsnap.New(opts), nil
	},
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// fs: 单文件（默认原子替换）
	"fs": func(path string, raw json.RawMessage) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wfs.New(path, &opts)
	},
}

// Names 返回注册名的有序列表，用于帮助文本与校验提示。
func Names[V any](m map[string]V) string {
	return strings.Join(slices.Sorted(maps.Keys(m)), "|")
}
