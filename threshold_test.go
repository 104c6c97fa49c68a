package gapdetect

import "testing"

func TestThresholdStrictLessThan(t *testing.T) {
	flat := constRaster(2, 3, 0)
	flat.SetCell(0, 0, -8)
	flat.SetCell(0, 1, -5) // 恰好等于阈值，不选
	flat.SetCell(0, 2, -4.999)
	flat.SetCell(1, 0, flat.NoData)
	mask := Threshold(flat, -5)
	if mask.Cell(0, 0) != 1 {
		t.Fatal("cell below threshold must be selected")
	}
	if !mask.IsNoData(mask.Cell(0, 1)) {
		t.Fatal("cell equal to threshold must not be selected")
	}
	if !mask.IsNoData(mask.Cell(0, 2)) {
		t.Fatal("cell above threshold must not be selected")
	}
	if !mask.IsNoData(mask.Cell(1, 0)) {
		t.Fatal("nodata input must stay nodata, never classified")
	}
	if !mask.IsNoData(mask.Cell(1, 1)) {
		t.Fatal("non-gap cell must be nodata, not zero")
	}
}

// 阈值单调下调时，每个新选中集必须是上一个选中集的子集
func TestThresholdMonotonic(t *testing.T) {
	flat := constRaster(6, 6, 0)
	for i := range flat.Data {
		flat.Data[i] = -float64(i % 11)
	}
	var prev *Raster
	for _, tv := range []float64{-2, -4, -6, -8, -10} {
		mask := Threshold(flat, tv)
		if prev != nil {
			if mask.ValidCount() > prev.ValidCount() {
				t.Fatalf("threshold %v selected %d cells, more than %d at higher threshold",
					tv, mask.ValidCount(), prev.ValidCount())
			}
			for i := range mask.Data {
				if mask.Data[i] == 1 && prev.Data[i] != 1 {
					t.Fatalf("cell %d selected at %v but not at the laxer threshold", i, tv)
				}
			}
		}
		prev = mask
	}
}
