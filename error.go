package gapdetect

import (
	"errors"
	"fmt"
)

var (
	ErrGdalDriverCreate = errors.New("gdal driver create err")
	ErrGdalDriverOpen   = errors.New("gdal driver open err")
	ErrGdalEmptyShp     = errors.New("gdal shp is empty")
	ErrVoidSrid         = errors.New("void srid")
	ErrInvalidWKT       = errors.New("invalid WKT")
	ErrInvalidTif       = errors.New("invalid tif")
	ErrTifReadFailed    = errors.New("tif read failed")
	ErrEmptyTif         = errors.New("empty tif")

	ErrMissingInput    = errors.New("missing input path in config")
	ErrBadWindowSize   = errors.New("focal window size must be an odd integer >= 3")
	ErrBadThreshold    = errors.New("height loss threshold must be negative")
	ErrBadFilterConfig = errors.New("buffer/area/ratio config must be non-negative")

	ErrNoOverlap      = errors.New("source raster does not overlap target extent")
	ErrSridMismatch   = errors.New("reference raster srid differs from target srid")
	ErrGridMismatch   = errors.New("rasters are not on the same grid")
	ErrAllNoData      = errors.New("artifact holds no valid cells")
	ErrGeometryRepair = errors.New("dissolved geometry could not be made valid")
)

// 阶段错误：带上阶段名与出错产物，便于定位
type StageError struct {
	Stage    string
	Artifact string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: artifact %q: %v", e.Stage, e.Artifact, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage, artifact string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Artifact: artifact, Err: err}
}
