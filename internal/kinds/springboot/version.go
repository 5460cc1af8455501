package springboot

import (
	"archive/zip"
	"bufio"
	"strings"

	"github.com/goofcode/just-start-server/internal/shared/apperr"
)

// manifestVersion reads Implementation-Version from the jar's
// META-INF/MANIFEST.MF.
func manifestVersion(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", apperr.New(apperr.InaccessibleResources, path)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "META-INF/MANIFEST.MF" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", apperr.New(apperr.InvalidInternalResource, path)
		}
		defer rc.Close()

		sc := bufio.NewScanner(rc)
		for sc.Scan() {
			line := sc.Text()
			if strings.HasPrefix(line, "Implementation-Version:") {
				return strings.TrimSpace(strings.TrimPrefix(line, "Implementation-Version:")), nil
			}
		}
	}
	return "", apperr.New(apperr.InvalidInternalResource, path)
}
