// Package filesystem 将运行结果写入单个文件（默认原子替换）。
package filesystem

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"linepair/pkg/contract"
)

// Options: 最小必要选项。
type Options struct {
	// Atomic: 是否使用原子替换（同目录临时文件 + rename）。
	// 未提供该字段时采用原子写；显式 false 可关闭。
	Atomic *bool `json:"atomic,omitempty"`
	// PermFile/PermDir: 可选权限；为 0 表示使用默认 0644/0755。
	PermFile os.FileMode `json:"perm_file,omitempty"`
	PermDir  os.FileMode `json:"perm_dir,omitempty"`
}

type FS struct {
	dest   string
	atomic bool
	permF  os.FileMode
	permD  os.FileMode
}

var _ contract.Writer = (*FS)(nil)

// New 创建写往 path 的 Writer；path 为空或为目录形式时报 os.ErrInvalid。
func New(path string, opts *Options) (*FS, error) {
	p := strings.TrimSpace(path)
	if p == "" || p == "-" || strings.HasSuffix(p, "/") || strings.HasSuffix(p, string(filepath.Separator)) {
		return nil, os.ErrInvalid
	}
	w := &FS{dest: filepath.Clean(p), atomic: true, permF: 0o644, permD: 0o755}
	if opts != nil {
		if opts.Atomic != nil {
			w.atomic = *opts.Atomic
		}
		if opts.PermFile != 0 {
			w.permF = opts.PermFile
		}
		if opts.PermDir != 0 {
			w.permD = opts.PermDir
		}
	}
	return w, nil
}

// Path 返回目标文件路径。
func (w *FS) Path() string { return w.dest }

// Write 将 r 的全部字节写入目标文件；父目录不存在时创建。
func (w *FS) Write(ctx context.Context, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(w.dest), w.permD); err != nil {
		return err
	}
	if w.atomic {
		return w.writeAtomic(ctx, r)
	}
	return w.writeOverwrite(ctx, r)
}

func (w *FS) writeOverwrite(ctx context.Context, r io.Reader) error {
	f, err := os.OpenFile(w.dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, w.permF)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := io.Copy(bw, readerWithCtx(ctx, r)); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func (w *FS) writeAtomic(ctx context.Context, r io.Reader) error {
	dir := filepath.Dir(w.dest)
	tmp, err := os.CreateTemp(dir, ".linepair-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	// 目标权限：尽量与期望一致
	_ = os.Chmod(tmpPath, w.permF)

	bw := bufio.NewWriter(tmp)
	if _, err := io.Copy(bw, readerWithCtx(ctx, r)); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	// 平台特定的原子替换（或最佳努力）
	if err := osReplace(tmpPath, w.dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	// 最佳努力：同步父目录，提升崩溃安全性
	_ = syncDir(dir)
	return nil
}

// readerWithCtx: 在每次 Read 前检查 ctx 是否已取消。
func readerWithCtx(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
