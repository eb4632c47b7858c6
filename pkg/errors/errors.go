package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrStaleState 条件更新未命中：记录状态已不满足转移前置条件
// （完成/未完成转移的 CAS 谓词匹配 0 行时返回，调用方按场景处理）
var ErrStaleState = errors.New("记录状态已变更，本次转移未生效")
