//go:build !windows

package filesystem

import (
	"fmt"
	"os"
)

// osReplace: 同目录 rename，POSIX 保证原子替换。
func osReplace(tmpPath, dest string) error {
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("replace %s: %w", dest, err)
	}
	return nil
}

// syncDir fsync 父目录，使 rename 后的目录项落盘。
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
