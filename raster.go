package gapdetect

import (
	"math"

	"github.com/forestwatch/gapdetect/log"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

const DefaultNoData = -9999

// 单波段浮点栅格，行优先存储
type Raster struct {
	Data   []float64
	Cols   int
	Rows   int
	GT     [6]float64
	SRID   int
	NoData float64
}

func NewRaster(spec GridSpec, noData float64) *Raster {
	r := &Raster{
		Data:   make([]float64, spec.Cols*spec.Rows),
		Cols:   spec.Cols,
		Rows:   spec.Rows,
		GT:     spec.GT,
		SRID:   spec.SRID,
		NoData: noData,
	}
	for i := range r.Data {
		r.Data[i] = noData
	}
	return r
}

func (r *Raster) Spec() GridSpec {
	return GridSpec{Cols: r.Cols, Rows: r.Rows, GT: r.GT, SRID: r.SRID}
}

func (r *Raster) Cell(row, col int) float64 {
	return r.Data[row*r.Cols+col]
}

func (r *Raster) SetCell(row, col int, v float64) {
	r.Data[row*r.Cols+col] = v
}

func (r *Raster) IsNoData(v float64) bool {
	return v == r.NoData || math.IsNaN(v)
}

func (r *Raster) ValidCount() (n int) {
	for _, v := range r.Data {
		if !r.IsNoData(v) {
			n++
		}
	}
	return
}

// 栅格外包范围 [minX, minY, maxX, maxY]
func (s GridSpec) Extent() [4]float64 {
	maxX := s.GT[0] + float64(s.Cols)*s.GT[1]
	minY := s.GT[3] + float64(s.Rows)*s.GT[5]
	return [4]float64{s.GT[0], minY, maxX, s.GT[3]}
}

func (r *Raster) Extent() [4]float64 {
	return r.Spec().Extent()
}

// 逐栅格运算前置条件：坐标系、行列数、仿射参数完全一致
func (r *Raster) SameGrid(o *Raster) bool {
	return r.Cols == o.Cols && r.Rows == o.Rows && r.SRID == o.SRID && r.GT == o.GT
}

// 逐栅格求差 newer - older，任一侧无效则输出无效
func Diff(newer, older *Raster) (out *Raster, err error) {
	if !newer.SameGrid(older) {
		err = ErrGridMismatch
		return
	}
	out = NewRaster(newer.Spec(), newer.NoData)
	for i, nv := range newer.Data {
		ov := older.Data[i]
		if newer.IsNoData(nv) || older.IsNoData(ov) {
			continue
		}
		out.Data[i] = nv - ov
	}
	return
}

// 读取单波段高程tif到内存栅格
func (g *GdalToolbox) ReadRaster(tif string) (r *Raster, err error) {
	ds, err := gdal.Open(tif, gdal.ReadOnly)
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("tif", tif), zap.Error(err))
		err = ErrInvalidTif
		return
	}
	defer ds.Close()
	if ds.RasterCount() < 1 {
		err = ErrEmptyTif
		return
	}
	sp := gdal.CreateSpatialReference(ds.Projection())
	defer sp.Destroy()
	srid, err := g.getSrid(sp)
	if err != nil {
		return
	}
	var (
		band = ds.RasterBand(1)
		x    = ds.RasterXSize()
		y    = ds.RasterYSize()
	)
	r = &Raster{
		Data:   make([]float64, x*y),
		Cols:   x,
		Rows:   y,
		GT:     ds.GeoTransform(),
		SRID:   srid,
		NoData: DefaultNoData,
	}
	if nd, ok := band.NoDataValue(); ok {
		r.NoData = nd
	}
	if err = band.IO(gdal.Read, 0, 0, x, y, r.Data, x, y, 0, 0); err != nil {
		log.Error(g.logTag+"read tif band failed", zap.String("tif", tif), zap.Error(err))
		err = ErrTifReadFailed
		return
	}
	log.Info(g.logTag+"read tif", zap.String("tif", tif),
		zap.Int("width", x), zap.Int("height", y), zap.Int("srid", srid))
	return
}

// 将内存栅格写为LZW压缩的GTiff
func (g *GdalToolbox) WriteRaster(tif string, r *Raster) (err error) {
	wkt, err := g.sridWkt(r.SRID)
	if err != nil {
		return
	}
	driver, err := gdal.GetDriverByName(GTIFF_DRIVER)
	if err != nil {
		log.Error(g.logTag+"get gtiff driver failed", zap.Error(err))
		err = ErrGdalDriverCreate
		return
	}
	ds := driver.Create(tif, r.Cols, r.Rows, 1, gdal.Float64, []string{"COMPRESS=LZW"})
	defer ds.Close()
	ds.SetGeoTransform(r.GT)
	ds.SetProjection(wkt)
	band := ds.RasterBand(1)
	band.SetNoDataValue(r.NoData)
	if err = band.IO(gdal.Write, 0, 0, r.Cols, r.Rows, r.Data, r.Cols, r.Rows, 0, 0); err != nil {
		log.Error(g.logTag+"write tif band failed", zap.String("tif", tif), zap.Error(err))
		return
	}
	log.Info(g.logTag+"raster written", zap.String("tif", tif), zap.Int("valid", r.ValidCount()))
	return
}

// 将标记栅格写为Int32 GTiff，0为无标记
func (g *GdalToolbox) WriteLabelRaster(tif string, lg *LabelGrid) (err error) {
	wkt, err := g.sridWkt(lg.SRID)
	if err != nil {
		return
	}
	driver, err := gdal.GetDriverByName(GTIFF_DRIVER)
	if err != nil {
		log.Error(g.logTag+"get gtiff driver failed", zap.Error(err))
		err = ErrGdalDriverCreate
		return
	}
	ds := driver.Create(tif, lg.Cols, lg.Rows, 1, gdal.Int32, []string{"COMPRESS=LZW"})
	defer ds.Close()
	ds.SetGeoTransform(lg.GT)
	ds.SetProjection(wkt)
	band := ds.RasterBand(1)
	band.SetNoDataValue(0)
	if err = band.IO(gdal.Write, 0, 0, lg.Cols, lg.Rows, lg.Labels, lg.Cols, lg.Rows, 0, 0); err != nil {
		log.Error(g.logTag+"write label band failed", zap.String("tif", tif), zap.Error(err))
	}
	return
}
