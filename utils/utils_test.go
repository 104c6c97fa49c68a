package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetUniqSubDir(t *testing.T) {
	parent := t.TempDir()
	a, err := GetUniqSubDir(parent)
	if err != nil {
		t.Fatal(err)
	}
	b, err := GetUniqSubDir(parent)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatalf("two runs got the same dir %s", a)
	}
	for _, d := range []string{a, b} {
		if fi, e := os.Stat(d); e != nil || !fi.IsDir() {
			t.Fatalf("%s is not a directory", d)
		}
	}
}

func TestGetFilenameWithoutExt(t *testing.T) {
	cases := map[string]string{
		"/data/plots/plot_07.shp": "plot_07",
		"boundary.shp":            "boundary",
		"older.tif":               "older",
	}
	for in, want := range cases {
		if got := GetFilenameWithoutExt(in); got != want {
			t.Fatalf("GetFilenameWithoutExt(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestShpDeclaredUtf8(t *testing.T) {
	dir := t.TempDir()
	shp := filepath.Join(dir, "plot.shp")
	if _, utf8 := ShpDeclaredUtf8(shp); !utf8 {
		t.Fatal("missing cpg must be treated as UTF-8")
	}
	if err := os.WriteFile(filepath.Join(dir, "plot.cpg"), []byte("GBK\n"), os.ModePerm); err != nil {
		t.Fatal(err)
	}
	cpg, utf8 := ShpDeclaredUtf8(shp)
	if utf8 || cpg != "GBK" {
		t.Fatalf("cpg = %q utf8 = %v, want GBK false", cpg, utf8)
	}
	if err := os.WriteFile(filepath.Join(dir, "plot.cpg"), []byte("utf-8"), os.ModePerm); err != nil {
		t.Fatal(err)
	}
	if _, utf8 = ShpDeclaredUtf8(shp); !utf8 {
		t.Fatal("utf-8 cpg must be recognized case-insensitively")
	}
}

func TestGbkRoundTrip(t *testing.T) {
	const s = "样地07号"
	gbk, err := Utf8StrToGbk(s)
	if err != nil {
		t.Fatal(err)
	}
	if gbk == s {
		t.Fatal("gbk encoding left the string unchanged")
	}
	back, err := GbkStrToUtf8(gbk)
	if err != nil {
		t.Fatal(err)
	}
	if back != s {
		t.Fatalf("round trip got %q, want %q", back, s)
	}
}

func TestPurifyForUtf8(t *testing.T) {
	if got := PurifyForUtf8("plot\x0007"); got != "plot07" {
		t.Fatalf("got %q, want \"plot07\"", got)
	}
	if got := PurifyForUtf8("plot\xff07"); got != "plot07" {
		t.Fatalf("got %q, want invalid bytes stripped", got)
	}
}
