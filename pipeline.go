package gapdetect

import (
	"fmt"
	"os"

	"github.com/forestwatch/gapdetect/log"
	"github.com/forestwatch/gapdetect/utils"

	"go.uber.org/zap"
)

// 各阶段名称，报错时随StageError带出
const (
	StageGeoAligner      = "GeoAligner"
	StageDetrender       = "Detrender"
	StageThresholder     = "Thresholder"
	StagePatchLabeler    = "PatchLabeler"
	StagePolygonizer     = "Polygonizer"
	StageGeometricFilter = "GeometricFilter"
)

// 林隙检测流水线：对齐 → 去趋势 → 阈值 → 连通域标记 → 转矢量 → 几何过滤。
// 严格顺序执行，各阶段只读上游产物、新建自身产物；相同输入与配置重跑结果一致。
type Pipeline struct {
	cfg    Config
	tbx    *GdalToolbox
	logTag string
}

func NewPipeline(cfg Config) (p *Pipeline, err error) {
	if err = cfg.Validate(); err != nil {
		return
	}
	if err = os.MkdirAll(cfg.OutDir, os.ModePerm); err != nil {
		return
	}
	// 临时文件（cutline等）放进每次运行独有的子目录，互不干扰
	tmpDir, err := utils.GetUniqSubDir(cfg.OutDir)
	if err != nil {
		return
	}
	p = &Pipeline{
		cfg:    cfg,
		tbx:    NewGdalToolbox(tmpDir),
		logTag: "Pipeline:",
	}
	return
}

func (p *Pipeline) Run() (sum Summary, err error) {
	cfg := p.cfg
	log.Info(p.logTag+"run start", zap.String("older", cfg.OlderDEM), zap.String("newer", cfg.NewerDEM),
		zap.String("boundary", cfg.Boundary), zap.Int("srid", cfg.TargetSRID))

	bd, err := p.tbx.LoadBoundary(cfg)
	if err != nil {
		err = stageErr(StageGeoAligner, cfg.Boundary, err)
		return
	}
	spec, err := p.tbx.ReferenceSpec(cfg.Reference)
	if err != nil {
		err = stageErr(StageGeoAligner, cfg.Reference, err)
		return
	}
	if err = cfg.checkReferenceFrame(spec); err != nil {
		err = stageErr(StageGeoAligner, cfg.Reference, err)
		return
	}
	older, err := p.tbx.AlignRaster(cfg.OlderDEM, bd, spec, cfg.artifact(ART_CLIPPED_OLD), cfg.artifact(ART_ALIGNED_OLD))
	if err != nil {
		err = stageErr(StageGeoAligner, cfg.OlderDEM, err)
		return
	}
	newer, err := p.tbx.AlignRaster(cfg.NewerDEM, bd, spec, cfg.artifact(ART_CLIPPED_NEW), cfg.artifact(ART_ALIGNED_NEW))
	if err != nil {
		err = stageErr(StageGeoAligner, cfg.NewerDEM, err)
		return
	}

	diff, focal, flat, err := Detrend(newer, older, cfg.WindowSize)
	if err != nil {
		err = stageErr(StageDetrender, ART_DETRENDED, err)
		return
	}
	for _, art := range []struct {
		name string
		r    *Raster
	}{
		{ART_RAW_DIFF, diff},
		{ART_FOCAL_MED, focal},
		{ART_DETRENDED, flat},
	} {
		if err = p.tbx.WriteRaster(cfg.artifact(art.name), art.r); err != nil {
			err = stageErr(StageDetrender, art.name, err)
			return
		}
	}

	mask := Threshold(flat, cfg.LossThreshold)
	if err = p.tbx.WriteRaster(cfg.artifact(ART_MASK), mask); err != nil {
		err = stageErr(StageThresholder, ART_MASK, err)
		return
	}

	labels := LabelMask(mask)
	if err = p.tbx.WriteLabelRaster(cfg.artifact(ART_LABELS), labels); err != nil {
		err = stageErr(StagePatchLabeler, ART_LABELS, err)
		return
	}

	patches, err := p.tbx.PolygonizeLabels(labels, cfg.artifact(ART_RAW_POLYS))
	if err != nil {
		err = stageErr(StagePolygonizer, ART_RAW_POLYS, err)
		return
	}

	_, sum, err = p.tbx.FilterGaps(patches, cfg, cfg.artifact(ART_GAP_POLYS))
	if err != nil {
		err = stageErr(StageGeometricFilter, ART_GAP_POLYS, err)
		return
	}
	sum.Plot = bd.Name
	log.Info(p.logTag+"run done", zap.String("plot", sum.Plot), zap.Int("retained", sum.Retained),
		zap.Int("rejected", sum.Rejected), zap.Float64("totalArea", sum.TotalAreaM2))
	return
}

// 汇总统计的文字形式
func (s Summary) String() string {
	head := "plot"
	if s.Plot != "" {
		head = s.Plot
	}
	return fmt.Sprintf("%s: %d candidate patches, %d gaps retained (%d rejected), total gap area %.2f m2",
		head, s.Candidates, s.Retained, s.Rejected, s.TotalAreaM2)
}
