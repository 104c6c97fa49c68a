package gapdetect

import (
	"errors"
	"strings"
	"testing"
)

func TestStageErrorWraps(t *testing.T) {
	err := stageErr(StageGeoAligner, "older.tif", ErrNoOverlap)
	if !errors.Is(err, ErrNoOverlap) {
		t.Fatal("StageError must unwrap to its cause")
	}
	msg := err.Error()
	if !strings.Contains(msg, StageGeoAligner) || !strings.Contains(msg, "older.tif") {
		t.Fatalf("message %q must carry stage and artifact", msg)
	}
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageGeoAligner {
		t.Fatal("errors.As must recover the StageError")
	}
}

func TestStageErrNil(t *testing.T) {
	if stageErr(StageDetrender, "x", nil) != nil {
		t.Fatal("nil cause must stay nil")
	}
}
