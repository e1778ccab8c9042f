package errors

import "errors"

// ErrConflict 唯一约束冲突：记录已被其他操作占用（例如半轮已被配对）
var ErrConflict = errors.New("数据已被其他操作修改，请刷新后重试")
