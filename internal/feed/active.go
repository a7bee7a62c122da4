package feed

import (
	"slices"

	"github.com/user/moviescroll/internal/model"
)

// Observation 某部电影在视口中的可见比例
type Observation struct {
	MovieID      model.MovieID
	Ratio        float64
	Intersecting bool
}

// ActiveState 当前电影，零值表示没有
type ActiveState struct {
	id  model.MovieID
	set bool
}

func (s ActiveState) ID() (model.MovieID, bool) {
	return s.id, s.set
}

// Observe 取可见比例最大的相交条目，比例相同时取先出现的；
// 没有相交条目时保持不变
func (s ActiveState) Observe(batch []Observation) ActiveState {
	best := -1
	for i, o := range batch {
		if !o.Intersecting {
			continue
		}
		if best < 0 || o.Ratio > batch[best].Ratio {
			best = i
		}
	}
	if best < 0 {
		return s
	}
	return ActiveState{id: batch[best].MovieID, set: true}
}

// Reconcile 列表变化后：仍在列表中则保留，否则取第一部，列表为空则清空
func (s ActiveState) Reconcile(ids []model.MovieID) ActiveState {
	if len(ids) == 0 {
		return ActiveState{}
	}
	if s.set && slices.Contains(ids, s.id) {
		return s
	}
	return ActiveState{id: ids[0], set: true}
}
