package gapdetect

// GDAL几何的WKB编码
type GdalGeo = []byte

// 样地边界矢量（已合并、修复、外扩缓冲）
type Boundary struct {
	Geom GdalGeo // 缓冲后边界的WKB
	SRID int
	Name string // 样地名称，取自边界shp的可选字段
}

// 对齐网格描述：参与逐栅格运算的各栅格须完全一致
type GridSpec struct {
	Cols int
	Rows int
	GT   [6]float64 // GDAL仿射变换参数
	SRID int
}

// 连通域标记结果
type LabelGrid struct {
	Labels  []int32 // 行优先，0为无标记
	Cols    int
	Rows    int
	GT      [6]float64
	SRID    int
	Patches int // 连通域个数
}

// 单个候选林隙图斑
type GapPatch struct {
	Label int32
	Geom  GdalGeo
}

// 过滤后的林隙多边形及其几何量测
type GapPolygon struct {
	Label      int32
	Geom       GdalGeo
	AreaM2     float64
	PerimeterM float64
	Ratio      float64 // 面积/周长，越大越紧凑
}

// 流水线汇总统计
type Summary struct {
	Plot        string
	Candidates  int     // 几何过滤前的图斑数
	Retained    int     // 过滤后保留数
	Rejected    int     // Candidates - Retained，独立于保留集计算
	TotalAreaM2 float64 // 保留图斑总面积
}
