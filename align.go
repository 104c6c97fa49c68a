package gapdetect

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/forestwatch/gapdetect/log"

	"github.com/google/uuid"
	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

func pointsToWkt(x1, x2, y1, y2 float64) string {
	return fmt.Sprintf("POLYGON((%[1]f %[3]f, %[1]f %[4]f, %[2]f %[4]f, %[2]f %[3]f, %[1]f %[3]f))", x1, x2, y1, y2)
}

func spanToWkt(span [4]float64) string {
	return pointsToWkt(span[0], span[2], span[1], span[3])
}

// 读取参考栅格的网格描述（坐标系、分辨率、像元对齐均以此为准）
func (g *GdalToolbox) ReferenceSpec(tif string) (spec GridSpec, err error) {
	ds, err := gdal.Open(tif, gdal.ReadOnly)
	if err != nil {
		log.Error(g.logTag+"open reference tif failed", zap.String("tif", tif), zap.Error(err))
		err = ErrInvalidTif
		return
	}
	defer ds.Close()
	sp := gdal.CreateSpatialReference(ds.Projection())
	defer sp.Destroy()
	if spec.SRID, err = g.getSrid(sp); err != nil {
		return
	}
	spec.Cols = ds.RasterXSize()
	spec.Rows = ds.RasterYSize()
	spec.GT = ds.GeoTransform()
	log.Info(g.logTag+"reference grid loaded", zap.String("tif", tif),
		zap.Int("cols", spec.Cols), zap.Int("rows", spec.Rows), zap.Int("srid", spec.SRID))
	return
}

// 源栅格范围须与参考网格有交集，否则直接报对齐错误而非输出全无效栅格
func (g *GdalToolbox) checkOverlap(ds gdal.Dataset, spec GridSpec) (err error) {
	sp := gdal.CreateSpatialReference(ds.Projection())
	defer sp.Destroy()
	srid, err := g.getSrid(sp)
	if err != nil {
		return
	}
	srcRef, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	tRef, err := g.getSridRef(spec.SRID)
	if err != nil {
		return
	}
	src := GridSpec{Cols: ds.RasterXSize(), Rows: ds.RasterYSize(), GT: ds.GeoTransform()}
	srcGeo, err := g.parseWKT(spanToWkt(src.Extent()), srcRef)
	if err != nil {
		return
	}
	defer srcGeo.Destroy()
	if srid != spec.SRID {
		if err = srcGeo.TransformTo(tRef); err != nil {
			log.Error(g.logTag+"extent transform failed", zap.Error(err))
			return
		}
	}
	refGeo, err := g.parseWKT(spanToWkt(spec.Extent()), tRef)
	if err != nil {
		return
	}
	defer refGeo.Destroy()
	if !srcGeo.Intersects(refGeo) {
		err = ErrNoOverlap
	}
	return
}

// 将任意坐标系的源DEM对齐到参考网格：
// 先按缓冲后的样地边界裁剪（外接框裁剪+多边形掩膜），再重投影并双线性重采样到参考网格的精确像元上。
// 两步各落盘一个产物，便于逐阶段核查。
func (g *GdalToolbox) AlignRaster(src string, bd Boundary, spec GridSpec, clipOut, alignOut string) (r *Raster, err error) {
	sds, err := gdal.Open(src, gdal.ReadOnly)
	if err != nil {
		log.Error(g.logTag+"open src tif failed", zap.String("tif", src), zap.Error(err))
		err = ErrInvalidTif
		return
	}
	defer sds.Close()
	if err = g.checkOverlap(sds, spec); err != nil {
		log.Error(g.logTag+"source does not reach reference grid", zap.String("tif", src), zap.Error(err))
		return
	}
	ref, err := g.getSridRef(bd.SRID)
	if err != nil {
		return
	}
	geo, err := g.parseWKB(bd.Geom, ref)
	if err != nil {
		return
	}
	defer geo.Destroy()
	cutline := filepath.Join(g.tmpDir, fmt.Sprintf(TMP_CUTLINE, uuid.NewString()))
	if err = os.WriteFile(cutline, g.geoToFeatureJSON(geo, bd.SRID), os.ModePerm); err != nil {
		return
	}
	defer os.Remove(cutline)

	nd := fmt.Sprintf("%f", float64(DefaultNoData))
	log.Info(g.logTag+"clip raster to buffered boundary", zap.String("tif", src), zap.String("out", clipOut))
	cds, err := gdal.Warp(clipOut, nil, []gdal.Dataset{sds}, []string{
		"-cutline", cutline, "-crop_to_cutline",
		"-dstnodata", nd, "-overwrite", "-co", "COMPRESS=LZW",
	})
	if err != nil {
		log.Error(g.logTag+"failed to clip raster", zap.String("tif", src), zap.Error(err))
		return
	}
	defer cds.Close()

	ext := spec.Extent()
	log.Info(g.logTag+"resample raster onto reference grid", zap.String("out", alignOut))
	ads, err := gdal.Warp(alignOut, nil, []gdal.Dataset{cds}, []string{
		"-t_srs", fmt.Sprintf("epsg:%d", spec.SRID),
		"-te", fmt.Sprintf("%f", ext[0]), fmt.Sprintf("%f", ext[1]), fmt.Sprintf("%f", ext[2]), fmt.Sprintf("%f", ext[3]),
		"-tr", fmt.Sprintf("%f", spec.GT[1]), fmt.Sprintf("%f", -spec.GT[5]),
		"-r", "bilinear",
		"-dstnodata", nd, "-overwrite", "-co", "COMPRESS=LZW",
	})
	if err != nil {
		log.Error(g.logTag+"failed to resample raster", zap.String("tif", src), zap.Error(err))
		return
	}
	ads.Close()

	if r, err = g.ReadRaster(alignOut); err != nil {
		return
	}
	if r.Cols != spec.Cols || r.Rows != spec.Rows || r.SRID != spec.SRID {
		log.Error(g.logTag+"aligned raster missed reference grid",
			zap.Int("cols", r.Cols), zap.Int("rows", r.Rows))
		err = ErrGridMismatch
		return
	}
	// 对齐产物的仿射参数以参考网格为准，消除warp输出的浮点尾差
	r.GT = spec.GT
	if r.ValidCount() == 0 {
		log.Warn(g.logTag+"aligned raster holds no valid cells", zap.String("tif", src))
		err = ErrAllNoData
	}
	return
}
