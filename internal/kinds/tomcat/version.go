package tomcat

import (
	"archive/zip"
	"bufio"
	"os"
	"regexp"
	"strings"

	"github.com/goofcode/just-start-server/internal/shared/apperr"
)

var releaseNotesVersion = regexp.MustCompile(`Apache Tomcat Version\s+([\d.]+)`)

// versionFromReleaseNotes scans RELEASE-NOTES for the version banner near
// the top of the file.
func versionFromReleaseNotes(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", apperr.New(apperr.InaccessibleResources, path)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for i := 0; sc.Scan() && i < 50; i++ {
		if m := releaseNotesVersion.FindStringSubmatch(sc.Text()); m != nil {
			return m[1], nil
		}
	}
	return "", apperr.New(apperr.InvalidInternalResource, path)
}

// versionFromJarManifest reads Implementation-Version from the jar's
// META-INF/MANIFEST.MF.
func versionFromJarManifest(path string) (string, error) {
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

func majorOf(version string) string {
	if i := strings.IndexByte(version, '.'); i > 0 {
		return version[:i]
	}
	return version
}
