package gapdetect

import (
	"github.com/forestwatch/gapdetect/log"

	"go.uber.org/zap"
)

// 阈值分割：flat < t 的像元记为1，其余保持无效。
// 非候选像元写无效值而非0，保证下游连通域标记只处理稀疏的候选集；无效输入像元永不参与分类。
func Threshold(flat *Raster, t float64) (mask *Raster) {
	mask = NewRaster(flat.Spec(), flat.NoData)
	var hits int
	for i, v := range flat.Data {
		if flat.IsNoData(v) {
			continue
		}
		if v < t {
			mask.Data[i] = 1
			hits++
		}
	}
	log.Info("Thresholder: binary gap mask ready", zap.Float64("threshold", t), zap.Int("cells", hits))
	return
}
