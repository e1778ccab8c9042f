package engine

import (
	"sort"
	"sync"
	"time"
)

// SkipInfo 技师被跳过（休息）的信息
type SkipInfo struct {
	EmployeeID string    `json:"employee_id"`
	SkippedAt  time.Time `json:"skipped_at"`
	Reason     string    `json:"reason,omitempty"`
}

// SkipOverlay 跳过/休息覆盖层。
// 只存在于进程内存，不写入轮次或打卡记录；重启后清空。
type SkipOverlay struct {
	mu      sync.RWMutex
	skipped map[string]SkipInfo
	now     func() time.Time
}

// NewSkipOverlay 创建空的覆盖层
func NewSkipOverlay() *SkipOverlay {
	return &SkipOverlay{
		skipped: make(map[string]SkipInfo),
		now:     time.Now,
	}
}

// Skip 将技师标记为跳过；重复调用会刷新时间与原因
func (o *SkipOverlay) Skip(employeeID, reason string) SkipInfo {
	o.mu.Lock()
	defer o.mu.Unlock()

	info := SkipInfo{EmployeeID: employeeID, SkippedAt: o.now(), Reason: reason}
	o.skipped[employeeID] = info
	return info
}

// Unskip 取消跳过，返回此前是否处于跳过状态
func (o *SkipOverlay) Unskip(employeeID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	_, ok := o.skipped[employeeID]
	delete(o.skipped, employeeID)
	return ok
}

// IsSkipped 是否处于跳过状态
func (o *SkipOverlay) IsSkipped(employeeID string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	_, ok := o.skipped[employeeID]
	return ok
}

// Info 获取跳过信息
func (o *SkipOverlay) Info(employeeID string) (SkipInfo, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	info, ok := o.skipped[employeeID]
	return info, ok
}

// All 按跳过时间先后列出全部跳过的技师
func (o *SkipOverlay) All() []SkipInfo {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]SkipInfo, 0, len(o.skipped))
	for _, info := range o.skipped {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SkippedAt.Equal(out[j].SkippedAt) {
			return out[i].SkippedAt.Before(out[j].SkippedAt)
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}

// Clear 清空全部跳过状态
func (o *SkipOverlay) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.skipped = make(map[string]SkipInfo)
}
