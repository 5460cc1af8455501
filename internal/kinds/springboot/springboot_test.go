package springboot

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goofcode/just-start-server/internal/app"
	"github.com/goofcode/just-start-server/internal/infrastructure/logging"
	"github.com/goofcode/just-start-server/internal/shared/apperr"
	"github.com/goofcode/just-start-server/internal/shared/types"
)

func writeJar(t *testing.T, path, version string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("META-INF/MANIFEST.MF")
	require.NoError(t, err)
	manifest := "Manifest-Version: 1.0\n"
	if version != "" {
		manifest += "Implementation-Version: " + version + "\n"
	}
	_, err = w.Write([]byte(manifest))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func newBoot(t *testing.T, workspace string) *SpringBoot {
	t.Helper()
	return New("App1", workspace, logging.NewNop())
}

func TestTemplate(t *testing.T) {
	props := Template()
	require.Len(t, props, 2)
	assert.Equal(t, types.PropPort, props[0].Key)
	assert.True(t, props[0].Changeable)
	assert.Equal(t, types.PropJVMOptions, props[1].Key)
}

func TestInit(t *testing.T) {
	workspace := t.TempDir()
	jar := filepath.Join(workspace, "app.jar")
	writeJar(t, jar, "1.0.0")

	sb := newBoot(t, workspace)
	sb.Config().AppPath = jar
	assert.NoError(t, sb.Init())
}

func TestInitMissingJar(t *testing.T) {
	sb := newBoot(t, t.TempDir())
	sb.Config().AppPath = filepath.Join(t.TempDir(), "nope.jar")
	assert.True(t, apperr.IsCode(sb.Init(), apperr.InaccessibleResources))
}

func TestInitRejectsNonJar(t *testing.T) {
	workspace := t.TempDir()
	path := filepath.Join(workspace, "app.jar")
	require.NoError(t, os.WriteFile(path, []byte("not a jar"), 0o644))

	sb := newBoot(t, workspace)
	sb.Config().AppPath = path
	assert.True(t, apperr.IsCode(sb.Init(), apperr.InvalidInternalResource))
}

func TestDeployPicksNewestArtifact(t *testing.T) {
	workspace := t.TempDir()
	target := filepath.Join(t.TempDir(), "deployed.jar")
	writeJar(t, target, "0.0.1")

	require.NoError(t, os.MkdirAll(filepath.Join(workspace, "build", "libs"), 0o755))
	writeJar(t, filepath.Join(workspace, "build", "libs", "app-1.2.0.jar"), "1.2.0")

	sb := newBoot(t, workspace)
	sb.Config().AppPath = target
	require.NoError(t, sb.Deploy(context.Background(), app.NopSink{}))

	v, err := manifestVersion(target)
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", v)
}

func TestDeployNoArtifact(t *testing.T) {
	sb := newBoot(t, t.TempDir())
	sb.Config().AppPath = filepath.Join(t.TempDir(), "app.jar")

	err := sb.Deploy(context.Background(), nil)
	assert.True(t, apperr.IsCode(err, apperr.NotFoundTargetDeploy))
}

func TestFindVersionFromManifest(t *testing.T) {
	workspace := t.TempDir()
	jar := filepath.Join(workspace, "app.jar")
	writeJar(t, jar, "2.3.4")

	sb := newBoot(t, workspace)
	sb.Config().AppPath = jar

	v, err := sb.FindVersion()
	require.NoError(t, err)
	assert.Equal(t, "2.3.4", v)
}

func TestFindVersionNoManifestEntry(t *testing.T) {
	workspace := t.TempDir()
	jar := filepath.Join(workspace, "app.jar")
	writeJar(t, jar, "")

	sb := newBoot(t, workspace)
	sb.Config().AppPath = jar

	_, err := sb.FindVersion()
	assert.True(t, apperr.IsCode(err, apperr.InvalidInternalResource))
}

func TestStopWithoutProcess(t *testing.T) {
	sb := newBoot(t, t.TempDir())
	require.NoError(t, sb.Stop(context.Background(), nil))
	assert.Equal(t, types.StatusStop, sb.Status())
}
