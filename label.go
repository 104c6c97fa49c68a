package gapdetect

import (
	"github.com/forestwatch/gapdetect/log"

	"go.uber.org/zap"
)

// 不相交集合，用于合并第一遍扫描产生的临时标号
type unionFind struct {
	parent []int32
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make([]int32, 1, 64)} // 0号弃用，保留给无标记
}

func (u *unionFind) newSet() int32 {
	id := int32(len(u.parent))
	u.parent = append(u.parent, id)
	return id
}

func (u *unionFind) find(x int32) int32 {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]] // 路径减半
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int32) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		if ra > rb {
			ra, rb = rb, ra
		}
		u.parent[rb] = ra
	}
}

// 连通域标记：两遍扫描+并查集，8连通（含对角）。
// 标号按行优先首次出现的次序从1起编，对给定掩膜可完全复现；0表示无标记。
func LabelMask(mask *Raster) *LabelGrid {
	var (
		cols = mask.Cols
		rows = mask.Rows
		prov = make([]int32, cols*rows)
		uf   = newUnionFind()
	)
	// 第一遍：只看已扫过的西、西北、北、东北四个邻元
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			i := row*cols + col
			if mask.IsNoData(mask.Data[i]) {
				continue
			}
			var cur int32
			assign := func(n int32) {
				if n == 0 {
					return
				}
				if cur == 0 {
					cur = n
				} else {
					uf.union(cur, n)
				}
			}
			if col > 0 {
				assign(prov[i-1])
			}
			if row > 0 {
				if col > 0 {
					assign(prov[i-cols-1])
				}
				assign(prov[i-cols])
				if col < cols-1 {
					assign(prov[i-cols+1])
				}
			}
			if cur == 0 {
				cur = uf.newSet()
			}
			prov[i] = cur
		}
	}
	// 第二遍：临时标号归并到根，再按首次出现次序重编
	lg := &LabelGrid{
		Labels: make([]int32, cols*rows),
		Cols:   cols,
		Rows:   rows,
		GT:     mask.GT,
		SRID:   mask.SRID,
	}
	final := map[int32]int32{}
	var next int32 = 1
	for i, p := range prov {
		if p == 0 {
			continue
		}
		root := uf.find(p)
		id, ok := final[root]
		if !ok {
			id = next
			final[root] = id
			next++
		}
		lg.Labels[i] = id
	}
	lg.Patches = int(next - 1)
	log.Info("PatchLabeler: connected components labeled", zap.Int("patches", lg.Patches))
	return lg
}
