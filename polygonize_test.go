package gapdetect

import (
	"fmt"
	"math"
	"testing"
)

const testSrid = 32650

func testCfg() Config {
	return Config{
		OlderDEM: "a.tif", NewerDEM: "b.tif", Boundary: "p.shp", Reference: "ref.tif",
		TargetSRID: testSrid, WindowSize: 31, LossThreshold: -5, MinArea: 5, MinRatio: 0.6,
	}
}

func wktToPatch(t *testing.T, g *GdalToolbox, label int32, wkt string) GapPatch {
	t.Helper()
	ref, err := g.getSridRef(testSrid)
	if err != nil {
		t.Fatal(err)
	}
	geo, err := g.parseWKT(wkt, ref)
	if err != nil {
		t.Fatal(err)
	}
	defer geo.Destroy()
	wkb, err := geo.ToWKB()
	if err != nil {
		t.Fatal(err)
	}
	return GapPatch{Label: label, Geom: wkb}
}

// 10×10方形：面积100、周长40、比值2.5。阈值恰好等于量测值时必须保留
func TestFilterInclusiveBounds(t *testing.T) {
	g := NewGdalToolbox()
	square := wktToPatch(t, g, 1, "POLYGON((0 0,10 0,10 10,0 10,0 0))")
	cfg := testCfg()
	cfg.MinArea = 100
	cfg.MinRatio = 2.5
	gaps, sum, err := g.FilterGaps([]GapPatch{square}, cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	if sum.Retained != 1 || len(gaps) != 1 {
		t.Fatalf("retained = %d, want 1 (inclusive thresholds)", sum.Retained)
	}
	if gaps[0].AreaM2 != 100 || gaps[0].PerimeterM != 40 || gaps[0].Ratio != 2.5 {
		t.Fatalf("measurements = %v/%v/%v, want 100/40/2.5", gaps[0].AreaM2, gaps[0].PerimeterM, gaps[0].Ratio)
	}

	cfg.MinArea = 100.000001
	_, sum, err = g.FilterGaps([]GapPatch{square}, cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	if sum.Retained != 0 || sum.Rejected != 1 {
		t.Fatalf("retained/rejected = %d/%d, want 0/1", sum.Retained, sum.Rejected)
	}
}

// 细长条带：面积够但紧凑度低，应被剔除；计数相互独立
func TestFilterRejectsSlivers(t *testing.T) {
	g := NewGdalToolbox()
	patches := []GapPatch{
		wktToPatch(t, g, 1, "POLYGON((0 0,10 0,10 10,0 10,0 0))"),
		wktToPatch(t, g, 2, "POLYGON((0 20,50 20,50 20.5,0 20.5,0 20))"), // 25m2, 周长101
	}
	cfg := testCfg()
	gaps, sum, err := g.FilterGaps(patches, cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	if sum.Candidates != 2 || sum.Retained != 1 || sum.Rejected != 1 {
		t.Fatalf("summary = %+v, want 2 candidates, 1 retained, 1 rejected", sum)
	}
	if gaps[0].Label != 1 {
		t.Fatalf("retained label = %d, want 1", gaps[0].Label)
	}
	if sum.TotalAreaM2 != gaps[0].AreaM2 {
		t.Fatalf("total area %v != retained area %v", sum.TotalAreaM2, gaps[0].AreaM2)
	}
}

// 标记栅格转矢量后，按像元中心做点查询，逐像元复原标号归属
func TestPolygonizeRoundTrip(t *testing.T) {
	g := NewGdalToolbox()
	cells := [][2]int{
		{1, 1}, {1, 2}, {2, 2}, {3, 3}, // 含对角相接的连通域
		{8, 8}, {8, 9}, {9, 8},
	}
	mask := newTestMask(12, 12, cells)
	lg := LabelMask(mask)
	if lg.Patches != 2 {
		t.Fatalf("patches = %d, want 2", lg.Patches)
	}
	patches, err := g.PolygonizeLabels(lg, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(patches) != 2 {
		t.Fatalf("polygons = %d, want 2", len(patches))
	}
	ref, err := g.getSridRef(testSrid)
	if err != nil {
		t.Fatal(err)
	}
	for row := 0; row < lg.Rows; row++ {
		for col := 0; col < lg.Cols; col++ {
			x := lg.GT[0] + (float64(col)+0.5)*lg.GT[1]
			y := lg.GT[3] + (float64(row)+0.5)*lg.GT[5]
			pt, err := g.parseWKT(fmt.Sprintf("POINT(%f %f)", x, y), ref)
			if err != nil {
				t.Fatal(err)
			}
			want := lg.Labels[row*lg.Cols+col]
			var got int32
			for _, p := range patches {
				geo, err := g.parseWKB(p.Geom, ref)
				if err != nil {
					t.Fatal(err)
				}
				if geo.Contains(pt) {
					got = p.Label
				}
				geo.Destroy()
			}
			pt.Destroy()
			if got != want {
				t.Fatalf("cell (%d,%d): label %d, polygon membership %d", row, col, want, got)
			}
		}
	}
}

// 端到端：500×500恒定高程，newer中10×10方块降低8m，应恰好检出一个~100m2的林隙
func TestPipelineSyntheticScenario(t *testing.T) {
	rows, cols := 500, 500
	spec := GridSpec{Cols: cols, Rows: rows, GT: [6]float64{500000, 1, 0, 4000000, 0, -1}, SRID: testSrid}
	older := NewRaster(spec, DefaultNoData)
	newer := NewRaster(spec, DefaultNoData)
	for i := range older.Data {
		older.Data[i] = 20
		newer.Data[i] = 20
	}
	for row := 200; row < 210; row++ {
		for col := 300; col < 310; col++ {
			newer.SetCell(row, col, 12)
		}
	}
	cfg := testCfg()
	_, _, flat, err := Detrend(newer, older, cfg.WindowSize)
	if err != nil {
		t.Fatal(err)
	}
	mask := Threshold(flat, cfg.LossThreshold)
	if n := mask.ValidCount(); n != 100 {
		t.Fatalf("mask cells = %d, want 100", n)
	}
	lg := LabelMask(mask)
	if lg.Patches != 1 {
		t.Fatalf("patches = %d, want 1", lg.Patches)
	}
	g := NewGdalToolbox()
	patches, err := g.PolygonizeLabels(lg, "")
	if err != nil {
		t.Fatal(err)
	}
	gaps, sum, err := g.FilterGaps(patches, cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	if sum.Candidates != 1 || sum.Retained != 1 {
		t.Fatalf("summary = %+v, want exactly one retained gap", sum)
	}
	if math.Abs(gaps[0].AreaM2-100) > 1e-6 {
		t.Fatalf("gap area = %v, want ~100", gaps[0].AreaM2)
	}
	if gaps[0].Ratio < cfg.MinRatio {
		t.Fatalf("gap ratio = %v, below %v", gaps[0].Ratio, cfg.MinRatio)
	}
	if math.Abs(sum.TotalAreaM2-gaps[0].AreaM2) > 1e-9 {
		t.Fatalf("total area %v != gap area %v", sum.TotalAreaM2, gaps[0].AreaM2)
	}
}
