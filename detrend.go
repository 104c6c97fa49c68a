package gapdetect

import (
	"runtime"
	"sort"
	"sync"

	"github.com/forestwatch/gapdetect/log"

	"go.uber.org/zap"
)

// 求窗口内有效值的中位数；奇数个取中间值，偶数个取中间两值均值
func median(vals []float64) float64 {
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}

// 以w×w方窗对每个像元求集聚中值，无效邻元不参与统计；窗口内无任何有效值时输出无效。
// 按行块并行，各行互不依赖，结果与单线程一致。
func FocalMedian(in *Raster, w int) (out *Raster, err error) {
	if w < 3 || w%2 == 0 {
		err = ErrBadWindowSize
		return
	}
	out = NewRaster(in.Spec(), in.NoData)
	var (
		half = w / 2
		blk  = (in.Rows + runtime.NumCPU() - 1) / runtime.NumCPU()
		wg   sync.WaitGroup
	)
	for st := 0; st < in.Rows; st += blk {
		en := st + blk
		if en > in.Rows {
			en = in.Rows
		}
		wg.Add(1)
		go func(rowSt, rowEnd int) {
			defer wg.Done()
			win := make([]float64, 0, w*w)
			for row := rowSt; row < rowEnd; row++ {
				for col := 0; col < in.Cols; col++ {
					win = win[:0]
					for r := row - half; r <= row+half; r++ {
						if r < 0 || r >= in.Rows {
							continue
						}
						base := r * in.Cols
						for c := col - half; c <= col+half; c++ {
							if c < 0 || c >= in.Cols {
								continue
							}
							if v := in.Data[base+c]; !in.IsNoData(v) {
								win = append(win, v)
							}
						}
					}
					if len(win) > 0 {
						out.Data[row*out.Cols+col] = median(win)
					}
				}
			}
		}(st, en)
	}
	wg.Wait()
	if out.ValidCount() == 0 {
		err = ErrAllNoData
	}
	return
}

// 去趋势：diff = newer - older，再减去diff的w窗集聚中值。
// 系统性高程偏差（传感器/配准漂移）在w尺度上平滑，局部冠层损失为尖锐信号，相减即分离两者。
func Detrend(newer, older *Raster, w int) (diff, focal, flat *Raster, err error) {
	if diff, err = Diff(newer, older); err != nil {
		return
	}
	if focal, err = FocalMedian(diff, w); err != nil {
		return
	}
	flat = NewRaster(diff.Spec(), diff.NoData)
	for i, dv := range diff.Data {
		fv := focal.Data[i]
		if diff.IsNoData(dv) || focal.IsNoData(fv) {
			continue
		}
		flat.Data[i] = dv - fv
	}
	log.Info("Detrender: detrended difference ready",
		zap.Int("window", w), zap.Int("valid", flat.ValidCount()))
	return
}
