package gapdetect

import "testing"

func TestGridSpecExtent(t *testing.T) {
	spec := GridSpec{Cols: 100, Rows: 50, GT: [6]float64{500000, 2, 0, 4000000, 0, -2}, SRID: 32650}
	ext := spec.Extent()
	want := [4]float64{500000, 4000000 - 100, 500000 + 200, 4000000}
	if ext != want {
		t.Fatalf("extent = %v, want %v", ext, want)
	}
}

func TestSameGrid(t *testing.T) {
	spec := GridSpec{Cols: 10, Rows: 10, GT: [6]float64{0, 1, 0, 10, 0, -1}, SRID: 32650}
	a := NewRaster(spec, DefaultNoData)
	b := NewRaster(spec, DefaultNoData)
	if !a.SameGrid(b) {
		t.Fatal("identical specs must compare equal")
	}
	c := NewRaster(spec, DefaultNoData)
	c.GT[0] += 0.5
	if a.SameGrid(c) {
		t.Fatal("shifted origin must not compare equal")
	}
	d := NewRaster(GridSpec{Cols: 10, Rows: 10, GT: spec.GT, SRID: 4326}, DefaultNoData)
	if a.SameGrid(d) {
		t.Fatal("different srid must not compare equal")
	}
}

func TestNewRasterFilledWithNoData(t *testing.T) {
	r := NewRaster(GridSpec{Cols: 3, Rows: 3, GT: [6]float64{0, 1, 0, 3, 0, -1}, SRID: 32650}, DefaultNoData)
	if r.ValidCount() != 0 {
		t.Fatalf("fresh raster has %d valid cells, want 0", r.ValidCount())
	}
	r.SetCell(1, 2, 42)
	if r.ValidCount() != 1 || r.Cell(1, 2) != 42 {
		t.Fatal("cell write/read mismatch")
	}
}

func TestConfigValidate(t *testing.T) {
	ok := Config{
		OlderDEM: "a.tif", NewerDEM: "b.tif", Boundary: "p.shp", Reference: "ref.tif",
		TargetSRID: 32650, WindowSize: 99, LossThreshold: -5, MinArea: 5, MinRatio: 0.6,
	}
	if err := ok.Validate(); err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		mut  func(*Config)
		want error
	}{
		{func(c *Config) { c.OlderDEM = "" }, ErrMissingInput},
		{func(c *Config) { c.TargetSRID = 0 }, ErrVoidSrid},
		{func(c *Config) { c.WindowSize = 98 }, ErrBadWindowSize},
		{func(c *Config) { c.WindowSize = 1 }, ErrBadWindowSize},
		{func(c *Config) { c.LossThreshold = 0 }, ErrBadThreshold},
		{func(c *Config) { c.MinArea = -1 }, ErrBadFilterConfig},
	}
	for i, c := range cases {
		cfg := ok
		c.mut(&cfg)
		if err := cfg.Validate(); err != c.want {
			t.Fatalf("case %d: err = %v, want %v", i, err, c.want)
		}
	}
}

// 参考栅格坐标系与目标坐标系不一致时须显式报错，边界与栅格不得落在不同坐标系里
func TestCheckReferenceFrame(t *testing.T) {
	cfg := Config{TargetSRID: 32650}
	spec := GridSpec{Cols: 10, Rows: 10, GT: [6]float64{0, 1, 0, 10, 0, -1}, SRID: 32650}
	if err := cfg.checkReferenceFrame(spec); err != nil {
		t.Fatal(err)
	}
	spec.SRID = 4326
	if err := cfg.checkReferenceFrame(spec); err != ErrSridMismatch {
		t.Fatalf("err = %v, want ErrSridMismatch", err)
	}
}
