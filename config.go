package gapdetect

import "path/filepath"

const (
	FILE_EXT_SHP    = ".shp"
	FILE_EXT_TIF    = ".tif"
	SHAPE_ENCODING  = "UTF-8"
	SHP_DRIVER_NAME = "ESRI Shapefile"
	MEM_DRIVER_NAME = "MEM"
	MEM_VEC_DRIVER  = "Memory"
	GTIFF_DRIVER    = "GTiff"
	ENCODING_OPTION = "ENCODING=" + SHAPE_ENCODING

	SHP_FIELD_LABEL = "label"
	SHP_FIELD_AREA  = "area_m2"
	SHP_FIELD_PERIM = "perim_m"
	SHP_FIELD_RATIO = "ratio"

	BufferSegs = 24

	TMP_CUTLINE = "cutline_%s.json"

	// 各阶段产物文件名
	ART_CLIPPED_OLD = "older_clip" + FILE_EXT_TIF
	ART_CLIPPED_NEW = "newer_clip" + FILE_EXT_TIF
	ART_ALIGNED_OLD = "older_aligned" + FILE_EXT_TIF
	ART_ALIGNED_NEW = "newer_aligned" + FILE_EXT_TIF
	ART_RAW_DIFF    = "diff_raw" + FILE_EXT_TIF
	ART_FOCAL_MED   = "diff_focal_median" + FILE_EXT_TIF
	ART_DETRENDED   = "diff_detrended" + FILE_EXT_TIF
	ART_MASK        = "gap_mask" + FILE_EXT_TIF
	ART_LABELS      = "gap_labels" + FILE_EXT_TIF
	ART_RAW_POLYS   = "gaps_raw" + FILE_EXT_SHP
	ART_GAP_POLYS   = "gaps_filtered" + FILE_EXT_SHP
)

// 流水线配置：一次校验，各阶段只读
type Config struct {
	OlderDEM  string `yaml:"older_dem"`
	NewerDEM  string `yaml:"newer_dem"`
	Boundary  string `yaml:"boundary"`
	Reference string `yaml:"reference"`
	OutDir    string `yaml:"out_dir"`

	TargetSRID    int     `yaml:"target_srid"`
	BufferDist    float64 `yaml:"buffer_dist"`    // 边界外扩距离，单位同目标坐标系
	WindowSize    int     `yaml:"window_size"`    // 集聚中值窗口边长，奇数
	LossThreshold float64 `yaml:"loss_threshold"` // 高度损失阈值，负值
	MinArea       float64 `yaml:"min_area"`
	MinRatio      float64 `yaml:"min_ratio"`
	PlotField     string  `yaml:"plot_field"` // 边界shp中的样地名称字段，可为空
}

// 缺省配置取值
func DefaultConfig() Config {
	return Config{
		OutDir:        ".",
		BufferDist:    25,
		WindowSize:    99,
		LossThreshold: -5,
		MinArea:       5,
		MinRatio:      0.6,
	}
}

func (c Config) Validate() (err error) {
	switch {
	case c.OlderDEM == "" || c.NewerDEM == "" || c.Boundary == "" || c.Reference == "":
		err = ErrMissingInput
	case c.TargetSRID <= 0:
		err = ErrVoidSrid
	case c.WindowSize < 3 || c.WindowSize%2 == 0:
		err = ErrBadWindowSize
	case c.LossThreshold >= 0:
		err = ErrBadThreshold
	case c.BufferDist < 0 || c.MinArea < 0 || c.MinRatio < 0:
		err = ErrBadFilterConfig
	}
	return
}

func (c Config) artifact(name string) string {
	return filepath.Join(c.OutDir, name)
}

// 参考网格的坐标系须与目标坐标系一致；不一致是配置错误，不做隐式换系
func (c Config) checkReferenceFrame(spec GridSpec) error {
	if spec.SRID != c.TargetSRID {
		return ErrSridMismatch
	}
	return nil
}
