package chat

import (
	"EdVix/internal/model"
	"sort"
)

// SortByLastActive 展示层排序：按最近活跃时间倒序，相同时间保持原顺序
func SortByLastActive(convs []model.Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].LastActive.After(convs[j].LastActive)
	})
}
