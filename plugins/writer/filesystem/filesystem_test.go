package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func noTmp(t *testing.T, dir string) {
	t.Helper()
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".linepair-") {
			t.Fatalf("tmp file not cleaned: %s", e.Name())
		}
	}
}

// TestWriteAtomic 原子写入；目标已存在时替换
func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.txt")
	w, err := New(dest, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, v := range []string{"v1", "v2"} {
		if err := w.Write(context.Background(), strings.NewReader(v)); err != nil {
			t.Fatalf("write %s: %v", v, err)
		}
	}
	b, err := os.ReadFile(dest)
	if err != nil || string(b) != "v2" {
		t.Fatalf("unexpected file %v %q", err, string(b))
	}
	noTmp(t, dir)
}

// TestWriteNonAtomic 非原子写入并创建父目录
func TestWriteNonAtomic(t *testing.T) {
	dir := t.TempDir()
	a := false
	dest := filepath.Join(dir, "sub", "out.txt")
	w, _ := New(dest, &Options{Atomic: &a})
	if err := w.Write(context.Background(), strings.NewReader("long-content")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Write(context.Background(), strings.NewReader("v")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, _ := os.ReadFile(dest)
	if string(b) != "v" {
		t.Fatalf("truncate failed: %q", b)
	}
	if w.Path() != dest {
		t.Fatalf("path %s", w.Path())
	}
}

// TestWriteCtxCancel 上下文取消
func TestWriteCtxCancel(t *testing.T) {
	w, _ := New(filepath.Join(t.TempDir(), "a.txt"), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Write(ctx, strings.NewReader("data")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expect ctx error, got %v", err)
	}
}

// TestNewInvalid 参数缺失或为目录形式
func TestNewInvalid(t *testing.T) {
	for _, p := range []string{"", " ", "-", "out/"} {
		if _, err := New(p, nil); !errors.Is(err, os.ErrInvalid) {
			t.Fatalf("path %q expect ErrInvalid, got %v", p, err)
		}
	}
}

type errReader struct{}

func (errReader) Read(p []byte) (int, error) { return 0, errors.New("boom") }

// TestWriteAtomicCopyError 原子写入拷贝失败：不留临时文件，旧内容保留
func TestWriteAtomicCopyError(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(dest, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, _ := New(dest, nil)
	if err := w.Write(context.Background(), errReader{}); err == nil {
		t.Fatalf("expect copy error")
	}
	noTmp(t, dir)
	if b, _ := os.ReadFile(dest); string(b) != "old" {
		t.Fatalf("old content lost: %q", b)
	}
}

// TestReaderWithCtxCancel reader 在读取前取消
func TestReaderWithCtxCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := readerWithCtx(ctx, strings.NewReader("data"))
	cancel()
	if _, err := r.Read(make([]byte, 1)); err == nil {
		t.Fatalf("expect ctx error")
	}
}
