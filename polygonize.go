package gapdetect

import (
	"sort"

	"github.com/forestwatch/gapdetect/log"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// 标记栅格转矢量：经GDALPolygonize生成图斑多边形，按标号聚合，剔除无标记区，修复无效几何。
// 输出坐标值不变，仅将目标坐标系作为元数据挂到结果上。
func (g *GdalToolbox) PolygonizeLabels(lg *LabelGrid, rawShp string) (patches []GapPatch, err error) {
	wkt, err := g.sridWkt(lg.SRID)
	if err != nil {
		return
	}
	ref, err := g.getSridRef(lg.SRID)
	if err != nil {
		return
	}
	driver, err := gdal.GetDriverByName(MEM_DRIVER_NAME)
	if err != nil {
		log.Error(g.logTag+"get mem driver failed", zap.Error(err))
		err = ErrGdalDriverCreate
		return
	}
	ds := driver.Create("", lg.Cols, lg.Rows, 1, gdal.Int32, nil)
	defer ds.Close()
	ds.SetGeoTransform(lg.GT)
	ds.SetProjection(wkt)
	band := ds.RasterBand(1)
	if err = band.IO(gdal.Write, 0, 0, lg.Cols, lg.Rows, lg.Labels, lg.Cols, lg.Rows, 0, 0); err != nil {
		log.Error(g.logTag+"write label band failed", zap.Error(err))
		return
	}
	vecDriver := gdal.OGRDriverByName(MEM_VEC_DRIVER)
	vds, ok := vecDriver.Create("gaps", nil)
	if !ok {
		err = ErrGdalDriverCreate
		return
	}
	defer vds.Destroy()
	layer := vds.CreateLayer("gaps", ref, gdal.GT_Polygon, nil)
	labelField := gdal.CreateFieldDefinition(SHP_FIELD_LABEL, gdal.FT_Integer)
	if err = layer.CreateField(labelField, false); err != nil {
		return
	}
	labelIdx := layer.Definition().FieldIndex(SHP_FIELD_LABEL)
	// 标号波段同时作自身掩膜，0值（无标记）像元不出多边形；8连通与标记阶段的邻接定义一致
	if err = band.Polygonize(band, layer, labelIdx, []string{"8CONNECTED=8"}, gdal.DummyProgress, nil); err != nil {
		log.Error(g.logTag+"polygonize failed", zap.Error(err))
		return
	}
	var (
		feature *gdal.Feature
		geos    = map[int32][]gdal.Geometry{}
		gc      []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	layer.ResetReading()
	for {
		if feature = layer.NextFeature(); feature == nil {
			break
		}
		gc = append(gc, *feature)
		label := int32(feature.FieldAsInteger(labelIdx))
		if label == 0 {
			continue
		}
		geos[label] = append(geos[label], feature.Geometry())
	}
	labels := make([]int32, 0, len(geos))
	for label := range geos {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	patches = make([]GapPatch, 0, len(labels))
	for _, label := range labels {
		parts := geos[label]
		geo := parts[0]
		for _, p := range parts[1:] { // 同一标号的多部件聚合为一个要素
			geo = geo.Union(p)
			gc = append(gc, geo)
		}
		if geo, err = g.repairGeometry(geo.Clone()); err != nil {
			log.Error(g.logTag+"patch repair failed", zap.Int32("label", label), zap.Error(err))
			return
		}
		gc = append(gc, geo)
		var wkb GdalGeo
		if wkb, err = geo.ToWKB(); err != nil {
			return
		}
		patches = append(patches, GapPatch{Label: label, Geom: wkb})
	}
	log.Info(g.logTag+"labels polygonized", zap.Int("patches", len(patches)))
	if rawShp != "" {
		err = g.writePatchShapefile(rawShp, lg.SRID, patches)
	}
	return
}

// 将候选图斑写入shp，带标号字段
func (g *GdalToolbox) writePatchShapefile(shp string, srid int, patches []GapPatch) (err error) {
	ds, ref, layer, err := g.getShpDriver(shp, srid)
	if err != nil {
		return
	}
	defer ds.Destroy() // 生成shp文件 + 释放资源
	labelField := gdal.CreateFieldDefinition(SHP_FIELD_LABEL, gdal.FT_Integer)
	if err = layer.CreateField(labelField, false); err != nil {
		return
	}
	var (
		def     = layer.Definition()
		feature gdal.Feature
		geo     gdal.Geometry
		cnt     int
		e       error
		gc      = make([]destroyable, 0, len(patches))
	)
	for i, p := range patches {
		feature = def.Create()
		gc = append(gc, feature)
		if e = feature.SetFID(int64(i)); e != nil {
			log.Error(g.logTag+"err in set feature fid", zap.Error(e))
			continue
		}
		feature.SetFieldInteger(0, int(p.Label))
		if geo, e = g.parseWKB(p.Geom, ref); e != nil {
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
	log.Info(g.logTag+"patch shp created", zap.String("shp", shp), zap.Int("total", len(patches)), zap.Int("valid", cnt))
	return
}

func (g *GdalToolbox) getShpDriver(shp string, srid int) (ds gdal.DataSource, ref gdal.SpatialReference, layer gdal.Layer, err error) {
	log.Info(g.logTag+"output shp files", zap.String("shp", shp), zap.Int("srid", srid))
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Create(shp, nil)
	if !ok {
		err = ErrGdalDriverCreate
		return
	}
	if ref, err = g.getSridRef(srid); err != nil {
		return
	}
	layer = ds.CreateLayer("", ref, gdal.GT_Unknown, []string{ENCODING_OPTION})
	return
}
