package gapdetect

import (
	"github.com/forestwatch/gapdetect/log"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// 几何过滤：逐图斑计算平面面积、边界周长（外环+内环的线性边界）与面积/周长比，
// 面积与比值均为闭区间下限（恰好等于阈值的保留）。
// 候选数与保留数分别独立统计，被剔除数 = 候选数 - 保留数。
func (g *GdalToolbox) FilterGaps(patches []GapPatch, cfg Config, outShp string) (gaps []GapPolygon, sum Summary, err error) {
	ref, err := g.getSridRef(cfg.TargetSRID)
	if err != nil {
		return
	}
	var (
		geo      gdal.Geometry
		boundary gdal.Geometry
		gc       []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	sum.Candidates = len(patches)
	gaps = make([]GapPolygon, 0, len(patches))
	for _, p := range patches {
		if geo, err = g.parseWKB(p.Geom, ref); err != nil {
			return
		}
		gc = append(gc, geo)
		boundary = geo.Boundary()
		gc = append(gc, boundary)
		gp := GapPolygon{
			Label:      p.Label,
			Geom:       p.Geom,
			AreaM2:     geo.Area(),
			PerimeterM: boundary.Length(),
		}
		if gp.PerimeterM > 0 {
			gp.Ratio = gp.AreaM2 / gp.PerimeterM
		}
		if gp.AreaM2 >= cfg.MinArea && gp.Ratio >= cfg.MinRatio {
			gaps = append(gaps, gp)
			sum.TotalAreaM2 += gp.AreaM2
		} else {
			log.Debug(g.logTag+"patch rejected", zap.Int32("label", p.Label),
				zap.Float64("area", gp.AreaM2), zap.Float64("ratio", gp.Ratio))
		}
	}
	sum.Retained = len(gaps)
	sum.Rejected = sum.Candidates - sum.Retained
	log.Info(g.logTag+"geometric filter done", zap.Int("candidates", sum.Candidates),
		zap.Int("retained", sum.Retained), zap.Int("rejected", sum.Rejected),
		zap.Float64("totalArea", sum.TotalAreaM2))
	if outShp != "" {
		err = g.writeGapShapefile(outShp, cfg.TargetSRID, gaps)
	}
	return
}

// 将保留的林隙多边形连同量测字段写入shp
func (g *GdalToolbox) writeGapShapefile(shp string, srid int, gaps []GapPolygon) (err error) {
	ds, ref, layer, err := g.getShpDriver(shp, srid)
	if err != nil {
		return
	}
	defer ds.Destroy() // 生成shp文件 + 释放资源
	labelField := gdal.CreateFieldDefinition(SHP_FIELD_LABEL, gdal.FT_Integer)
	if err = layer.CreateField(labelField, false); err != nil {
		return
	}
	for _, name := range []string{SHP_FIELD_AREA, SHP_FIELD_PERIM, SHP_FIELD_RATIO} {
		field := gdal.CreateFieldDefinition(name, gdal.FT_Real)
		if err = layer.CreateField(field, false); err != nil {
			return
		}
	}
	var (
		def      = layer.Definition()
		areaIdx  = def.FieldIndex(SHP_FIELD_AREA)
		perimIdx = def.FieldIndex(SHP_FIELD_PERIM)
		ratioIdx = def.FieldIndex(SHP_FIELD_RATIO)
		feature  gdal.Feature
		geo      gdal.Geometry
		cnt      int
		e        error
		gc       = make([]destroyable, 0, len(gaps))
	)
	for i, gap := range gaps {
		feature = def.Create()
		gc = append(gc, feature)
		if e = feature.SetFID(int64(i)); e != nil {
			log.Error(g.logTag+"err in set feature fid", zap.Error(e))
			continue
		}
		feature.SetFieldInteger(0, int(gap.Label))
		feature.SetFieldFloat64(areaIdx, gap.AreaM2)
		feature.SetFieldFloat64(perimIdx, gap.PerimeterM)
		feature.SetFieldFloat64(ratioIdx, gap.Ratio)
		if geo, e = g.parseWKB(gap.Geom, ref); e != nil {
			continue
		}
		if e = feature.SetGeometryDirectly(geo); e != nil {
			log.Error(g.logTag+"err in set geom of feature", zap.Error(e))
			continue
		}
		if e = layer.Create(feature); e != nil {
			log.Error(g.logTag+"err in create feature of layer", zap.Error(e))
			continue
		}
		cnt++
	}
	for _, v := range gc {
		v.Destroy()
	}
	log.Info(g.logTag+"gap shp created", zap.String("shp", shp), zap.Int("total", len(gaps)), zap.Int("valid", cnt))
	return
}
