package tomcat

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goofcode/just-start-server/internal/infrastructure/logging"
	"github.com/goofcode/just-start-server/internal/shared/apperr"
	"github.com/goofcode/just-start-server/internal/shared/types"
)

const serverXMLFixture = `<?xml version="1.0" encoding="UTF-8"?>
<Server port="8005" shutdown="SHUTDOWN">
  <Service name="Catalina">
    <Connector port="9090" protocol="HTTP/1.1" connectionTimeout="20000"/>
    <Connector port="8009" protocol="AJP/1.3"/>
  </Service>
</Server>`

// catalinaHome lays out a minimal installation under a temp dir.
func catalinaHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "bin"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(home, "conf"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(home, "webapps"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, "bin", "catalina.sh"), []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, "conf", "server.xml"), []byte(serverXMLFixture), 0o644))
	return home
}

func newTomcat(t *testing.T, workspace string) *Tomcat {
	t.Helper()
	return New("App1", workspace, logging.NewNop())
}

func TestTemplate(t *testing.T) {
	props := Template()
	require.Len(t, props, 3)
	assert.Equal(t, types.PropPort, props[0].Key)
	assert.Equal(t, "8080", props[0].Value)
	assert.True(t, props[0].Changeable)
	assert.False(t, props[2].Changeable)
}

func TestInitValidatesLayout(t *testing.T) {
	tc := newTomcat(t, t.TempDir())
	tc.Config().AppPath = filepath.Join(t.TempDir(), "missing")
	assert.True(t, apperr.IsCode(tc.Init(), apperr.InaccessibleResources))

	home := t.TempDir()
	tc.Config().AppPath = home
	assert.True(t, apperr.IsCode(tc.Init(), apperr.InvalidInternalResource))
}

func TestInitAdoptsConnectorPort(t *testing.T) {
	tc := newTomcat(t, t.TempDir())
	tc.Config().AppPath = catalinaHome(t)

	require.NoError(t, tc.Init())
	assert.Equal(t, 9090, tc.ServicePort())
}

func TestInitKeepsUserPort(t *testing.T) {
	tc := newTomcat(t, t.TempDir())
	tc.Config().AppPath = catalinaHome(t)
	tc.Config().SetProperty(types.PropPort, "7777", true)

	require.NoError(t, tc.Init())
	assert.Equal(t, 7777, tc.ServicePort())
}

func TestConnectorPort(t *testing.T) {
	home := catalinaHome(t)
	port, err := connectorPort(filepath.Join(home, "conf", "server.xml"))
	require.NoError(t, err)
	assert.Equal(t, 9090, port)
}

func TestFindServerXMLFallsBackToWalk(t *testing.T) {
	home := catalinaHome(t)
	nested := filepath.Join(home, "apache-tomcat")
	require.NoError(t, os.Rename(filepath.Join(home, "conf"), filepath.Join(home, "other")))
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, err := findServerXML(home)
	require.NoError(t, err)
	assert.Equal(t, "server.xml", filepath.Base(path))
}

func writeWar(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("WEB-INF/web.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<web-app/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestDeploy(t *testing.T) {
	workspace := t.TempDir()
	tc := newTomcat(t, workspace)
	tc.Config().AppPath = catalinaHome(t)
	require.NoError(t, tc.Init())

	writeWar(t, filepath.Join(workspace, "sample.war"))
	require.NoError(t, tc.Deploy(context.Background(), nil))

	_, err := os.Stat(filepath.Join(tc.AppPath(), "webapps", "ROOT.war"))
	assert.NoError(t, err)
}

func TestDeployNoArchive(t *testing.T) {
	tc := newTomcat(t, t.TempDir())
	tc.Config().AppPath = catalinaHome(t)

	err := tc.Deploy(context.Background(), nil)
	assert.True(t, apperr.IsCode(err, apperr.NotFoundTargetDeploy))
}

func TestDeployRejectsNonArchive(t *testing.T) {
	workspace := t.TempDir()
	tc := newTomcat(t, workspace)
	tc.Config().AppPath = catalinaHome(t)

	require.NoError(t, os.WriteFile(filepath.Join(workspace, "bogus.war"), []byte("plain text"), 0o644))
	err := tc.Deploy(context.Background(), nil)
	assert.True(t, apperr.IsCode(err, apperr.NotMatchConfDeploy))
}

func TestFindVersionFromReleaseNotes(t *testing.T) {
	home := catalinaHome(t)
	notes := "================\nApache Tomcat Version 9.0.85\n================\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, "RELEASE-NOTES"), []byte(notes), 0o644))

	tc := newTomcat(t, t.TempDir())
	tc.Config().AppPath = home

	v, err := tc.FindVersion()
	require.NoError(t, err)
	assert.Equal(t, "9.0.85", v)
}

func TestFindVersionFromManifest(t *testing.T) {
	home := catalinaHome(t)
	require.NoError(t, os.MkdirAll(filepath.Join(home, "lib"), 0o755))

	jar := filepath.Join(home, "lib", "catalina.jar")
	f, err := os.Create(jar)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("META-INF/MANIFEST.MF")
	require.NoError(t, err)
	_, err = w.Write([]byte("Manifest-Version: 1.0\nImplementation-Version: 10.1.20\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	tc := newTomcat(t, t.TempDir())
	tc.Config().AppPath = home

	v, err := tc.FindVersion()
	require.NoError(t, err)
	assert.Equal(t, "10.1.20", v)
}

func TestValidateSource(t *testing.T) {
	home := catalinaHome(t)
	notes := "Apache Tomcat Version 9.0.85\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, "RELEASE-NOTES"), []byte(notes), 0o644))

	tc := newTomcat(t, t.TempDir())
	tc.Config().AppPath = home

	ok, err := tc.ValidateSource("")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tc.ValidateSource("9.0.1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tc.ValidateSource("10.1.0")
	require.NoError(t, err)
	assert.False(t, ok)

	tc.Config().AppPath = t.TempDir()
	ok, err = tc.ValidateSource("9.0.1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMajorOf(t *testing.T) {
	assert.Equal(t, "9", majorOf("9.0.85"))
	assert.Equal(t, "10", majorOf("10.1"))
	assert.Equal(t, "8", majorOf("8"))
}
