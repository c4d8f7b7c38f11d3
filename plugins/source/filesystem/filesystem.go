package filesystem

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
	"sync"

	"linepair/pkg/contract"
)

// Stdin 为 "-" 输入的数据来源（测试可替换）。
var Stdin io.Reader = os.Stdin

// Options 为 FileSystem 源的可选配置（最小必要）。
type Options struct {
	// BufSize 为读缓冲区大小（字节）。默认 64KiB。
	BufSize int `json:"buf_size"`
	// SpoolDir: "-"（STDIN）落盘暂存目录；空则使用系统临时目录。
	SpoolDir string `json:"spool_dir"`
}

// FileSystem 实现基于常规文件与 STDIN 的可回绕行源。
// 约束：
//  1. 仅接受常规文件（允许指向常规文件的符号链接）；目录、FIFO、设备报错；
//  2. STDIN 不可 Seek，首次 Open 时整体落盘到临时文件，之后每次 Open 打开该副本；
//  3. 每次 Open 返回独立句柄，由调用方独占并负责 Close；
//  4. Close 删除 STDIN 暂存文件。
type FileSystem struct {
	path     string
	id       contract.SourceID
	bufSize  int
	spoolDir string

	mu      sync.Mutex
	spooled string
}

// New 创建 FileSystem 源。path 为 "-" 表示 STDIN。
func New(path string, opts *Options) *FileSystem {
	const defaultBuf = 64 * 1024
	b := defaultBuf
	var spool string
	if opts != nil {
		if opts.BufSize > 0 {
			b = opts.BufSize
		}
		spool = strings.TrimSpace(opts.SpoolDir)
	}
	return &FileSystem{
		path:     path,
		id:       contract.NormalizeSourceID(path),
		bufSize:  b,
		spoolDir: spool,
	}
}

// ID 返回规范化的源标识。
func (s *FileSystem) ID() contract.SourceID { return s.id }

// Open 打开一个新的可回绕句柄。
func (s *FileSystem) Open(ctx context.Context) (contract.LineSource, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	p := s.path
	if strings.TrimSpace(p) == "-" {
		sp, err := s.spool()
		if err != nil {
			return nil, fmt.Errorf("%w: spool stdin: %w", contract.ErrSourceUnavailable, err)
		}
		p = sp
	}
	// Stat 跟随符号链接：仅目标为常规文件时可用
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", contract.ErrSourceUnavailable, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", contract.ErrSourceUnavailable, s.id)
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", contract.ErrSourceUnavailable, err)
	}
	return newFileLines(f, s.id, s.bufSize), nil
}

// Close 释放 STDIN 暂存文件（若有）。可重复调用。
func (s *FileSystem) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spooled == "" {
		return nil
	}
	err := os.Remove(s.spooled)
	s.spooled = ""
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// spool 将 STDIN 一次性复制到临时文件，返回其路径。
func (s *FileSystem) spool() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spooled != "" {
		return s.spooled, nil
	}
	f, err := os.CreateTemp(s.spoolDir, "linepair-stdin-*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	_, cerr := io.Copy(f, Stdin)
	if err := f.Close(); err != nil && cerr == nil {
		cerr = err
	}
	if cerr != nil {
		_ = os.Remove(name)
		return "", cerr
	}
	s.spooled = name
	return name, nil
}

// fileLines 是单个文件句柄上的行遍历状态；仅持有一个行缓冲。
type fileLines struct {
	f   *os.File
	br  *bufio.Reader
	id  contract.SourceID
	err error
}

func newFileLines(f *os.File, id contract.SourceID, bufSize int) *fileLines {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	return &fileLines{f: f, br: bufio.NewReaderSize(f, bufSize), id: id}
}

// Lines 自当前位置逐行产出，去除行尾 "\n" 与 "\r\n"。
// 末行无换行符时照常产出；文件以换行结尾不产生额外空行。
func (l *fileLines) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		if l.err != nil {
			return
		}
		for {
			line, err := l.br.ReadString('\n')
			if len(line) > 0 {
				line = strings.TrimSuffix(line, "\n")
				line = strings.TrimSuffix(line, "\r")
				if !yield(line) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					l.err = fmt.Errorf("%w: read %s: %w", contract.ErrSourceUnavailable, l.id, err)
				}
				return
			}
		}
	}
}

// Rewind 回到文件开头并丢弃缓冲内容；读错误保持粘滞。
func (l *fileLines) Rewind() error {
	if l.err != nil {
		return l.err
	}
	if _, err := l.f.Seek(0, io.SeekStart); err != nil {
		l.err = fmt.Errorf("%w: rewind %s: %w", contract.ErrSourceUnavailable, l.id, err)
		return l.err
	}
	l.br.Reset(l.f)
	return nil
}

func (l *fileLines) Err() error { return l.err }

func (l *fileLines) Close() error { return l.f.Close() }
