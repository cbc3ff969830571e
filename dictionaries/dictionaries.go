// Package dictionaries bundles the affix and dictionary files that
// the service loads at startup. Each language is a pair of files,
// lang.aff and lang.dic.
package dictionaries

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
)

//go:embed *.aff *.dic
var fsys embed.FS

// GetFS returns the embedded dictionary files.
func GetFS() fs.FS {
	return fsys
}

// Languages lists the languages that have both an affix and a
// dictionary file embedded.
func Languages() ([]string, error) {
	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("list embedded dictionaries: %w", err)
	}

	var langs []string

	for _, file := range files {
		lang, ok := strings.CutSuffix(file.Name(), ".dic")
		if !ok {
			continue
		}

		if _, err := fs.Stat(fsys, lang+".aff"); err != nil {
			continue
		}

		langs = append(langs, lang)
	}

	return langs, nil
}
