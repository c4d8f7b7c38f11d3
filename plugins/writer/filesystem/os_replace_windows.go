//go:build windows

package filesystem

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// osReplace: MoveFileEx(REPLACE_EXISTING|WRITE_THROUGH)，同卷内覆盖目标。
func osReplace(tmpPath, dest string) error {
	from, err := windows.UTF16PtrFromString(tmpPath)
	if err != nil {
		return err
	}
	to, err := windows.UTF16PtrFromString(dest)
	if err != nil {
		return err
	}
	if err := windows.MoveFileEx(from, to, windows.MOVEFILE_REPLACE_EXISTING|windows.MOVEFILE_WRITE_THROUGH); err != nil {
		return fmt.Errorf("replace %s: %w", dest, err)
	}
	return nil
}

// Windows 无法对目录句柄 fsync；WRITE_THROUGH 已覆盖元数据持久化。
func syncDir(string) error { return nil }
