package contract

import "context"

// Emitter: 将宏名序列渲染为行主序的表格声明块。
// 约束：
//  1. 确定性：相同输入得到相同 Block；
//  2. 每 columns 个条目插入一次换行标记，列号恒为 i mod columns；
//  3. 空序列返回仅含框架行的合法块；
//  4. 不做 I/O。
type Emitter interface {
	Emit(ctx context.Context, title string, macros []MacroName) (Block, error)
}
