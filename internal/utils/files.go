package utils

import (
	"os"
	"path/filepath"
	"strings"
)

func GetFilename(filePath string) string {
	base := filepath.Base(filePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// OpenFile creates <outputPath>/<subdir>/<name>.<ext> when makeDir is set and
// <outputPath>/<name>_<subdir>.<ext> otherwise.
func OpenFile(makeDir bool, outputPath, subdir, name, ext string) (*os.File, error) {
	if makeDir && subdir != "" && subdir != "." {
		dir := filepath.Join(outputPath, subdir)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, err
		}
		return os.Create(filepath.Join(dir, name+"."+ext))
	}
	if err := os.MkdirAll(outputPath, 0750); err != nil {
		return nil, err
	}
	if subdir == "" || subdir == "." {
		return os.Create(filepath.Join(outputPath, name+"."+ext))
	}
	return os.Create(filepath.Join(outputPath, name+"_"+subdir+"."+ext))
}
