package contract

import (
	"path"
	"strings"
)

// FileID: 规范化后的源路径（正斜杠、跨平台一致），用于日志与工件命名。
type FileID string

// NormalizeFileID 规范化路径：反斜杠转正斜杠后 path.Clean；
// 保留相对/绝对语义，不做隐式绝对化。
func NormalizeFileID(p string) FileID {
	return FileID(path.Clean(strings.ReplaceAll(p, "\\", "/")))
}
