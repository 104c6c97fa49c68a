package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	FILE_EXT_SHP = ".shp"
	FILE_EXT_CPG = ".cpg"
	FILE_EXT_TIF = ".tif"

	UTF8  = "UTF8"
	UTF_8 = "UTF-8"
)

func GetUniqSubDir(parentPath string) (path string, err error) {
	path = filepath.Join(parentPath, uuid.NewString())
	err = os.Mkdir(path, os.ModePerm)
	return
}

func GetFilenameWithoutExt(path string) (name string) {
	name = filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(path))
	return
}

// 读取shp同名cpg文件，判断其声明的编码是否为UTF-8（缺失的cpg按UTF-8处理）
func ShpDeclaredUtf8(shp string) (cpg string, utf8 bool) {
	enc, err := os.ReadFile(strings.TrimSuffix(shp, FILE_EXT_SHP) + FILE_EXT_CPG)
	if err != nil || len(enc) == 0 {
		utf8 = true
		return
	}
	cpg = strings.ToUpper(strings.TrimSpace(string(enc)))
	utf8 = cpg == UTF_8 || cpg == UTF8
	return
}
