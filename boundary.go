package gapdetect

import (
	"github.com/forestwatch/gapdetect/log"
	"github.com/forestwatch/gapdetect/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// 读取样地边界shp：合并全部要素、修复无效几何、转换到目标坐标系并外扩缓冲。
// 后续集聚运算在边界附近会受截断影响，故先按BufferDist外扩，保证样地内结果不受边缘效应污染。
func (g *GdalToolbox) LoadBoundary(cfg Config) (bd Boundary, err error) {
	shp := cfg.Boundary
	log.Info(g.logTag+"start parse boundary shp", zap.String("shp", shp))
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Open(shp, 0)
	if !ok {
		err = ErrGdalDriverOpen
		return
	}
	defer ds.Destroy()
	_, utf8 := utils.ShpDeclaredUtf8(shp)
	var (
		layer    = ds.LayerByIndex(0)
		feature  *gdal.Feature
		nameIdx  = -1
		srid     int
		features int
		gc       []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	if srid, err = g.getSrid(layer.SpatialReference()); err != nil {
		return
	}
	if cfg.PlotField != "" {
		def := layer.Definition()
		nameIdx = def.FieldIndex(cfg.PlotField)
		if nameIdx < 0 && !utf8 {
			// GBK编码的shp里字段名本身也可能是GBK，转码后再查一次
			if gbkField, e := utils.Utf8StrToGbk(cfg.PlotField); e == nil {
				nameIdx = def.FieldIndex(gbkField)
			}
		}
	}
	union := gdal.Create(gdal.GT_Polygon)
	for {
		if feature = layer.NextFeature(); feature == nil {
			break
		}
		gc = append(gc, *feature)
		gc = append(gc, union)
		union = union.Union(feature.Geometry())
		features++
		if nameIdx >= 0 && bd.Name == "" {
			bd.Name = feature.FieldAsString(nameIdx)
			if !utf8 {
				// cpg未声明UTF-8的属性按GBK解码
				if name, e := utils.GbkStrToUtf8(bd.Name); e == nil {
					bd.Name = name
				}
			}
			bd.Name = utils.PurifyForUtf8(bd.Name)
		}
	}
	if features == 0 || union.IsEmpty() {
		gc = append(gc, union)
		err = ErrGdalEmptyShp
		return
	}
	if srid != cfg.TargetSRID {
		var tRef gdal.SpatialReference
		if tRef, err = g.getSridRef(cfg.TargetSRID); err != nil {
			gc = append(gc, union)
			return
		}
		if err = union.TransformTo(tRef); err != nil {
			log.Error(g.logTag+"boundary transform failed", zap.Int("srid", srid), zap.Error(err))
			gc = append(gc, union)
			return
		}
	}
	if union, err = g.repairGeometry(union); err != nil {
		return
	}
	buffered := union.Buffer(cfg.BufferDist, BufferSegs)
	union.Destroy()
	gc = append(gc, buffered)
	if bd.Name == "" {
		bd.Name = utils.GetFilenameWithoutExt(shp)
	}
	bd.SRID = cfg.TargetSRID
	bd.Geom, err = buffered.ToWKB()
	log.Info(g.logTag+"boundary ready", zap.String("plot", bd.Name), zap.Int("features", features),
		zap.Int("srid", bd.SRID), zap.Float64("buffer", cfg.BufferDist))
	return
}
