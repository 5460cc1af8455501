package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goofcode/just-start-server/internal/shared/apperr"
	"github.com/goofcode/just-start-server/internal/shared/types"
)

func tomcatConfig(id string) types.AppConfig {
	return types.AppConfig{
		ID:      id,
		Type:    types.KindTomcat,
		AppPath: "/opt/tomcat",
		Properties: []types.Property{
			{Key: types.PropPort, Value: "8080", Changeable: true},
		},
	}
}

func TestReadMissingFileIsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "servers.yaml"))

	f, err := s.ReadConfigFile()
	require.NoError(t, err)
	assert.Empty(t, f.Apps)
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "conf", "servers.yaml"))

	require.NoError(t, s.WriteConfigApplications([]types.AppConfig{tomcatConfig("App1")}))

	f, err := s.ReadConfigFile()
	require.NoError(t, err)
	require.Len(t, f.Apps, 1)
	assert.Equal(t, "App1", f.Apps[0].ID)
	assert.Equal(t, types.KindTomcat, f.Apps[0].Type)
	require.Len(t, f.Apps[0].Properties, 1)
	assert.True(t, f.Apps[0].Properties[0].Changeable)
}

func TestWriteUpsertsByID(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "servers.yaml"))

	a := tomcatConfig("App1")
	b := tomcatConfig("App2")
	require.NoError(t, s.WriteConfigApplications([]types.AppConfig{a, b}))

	// Replacing App1 must keep its position and leave App2 untouched.
	a.SetProperty(types.PropPort, "9090", true)
	require.NoError(t, s.WriteConfigApplications([]types.AppConfig{a}))

	f, err := s.ReadConfigFile()
	require.NoError(t, err)
	require.Len(t, f.Apps, 2)
	assert.Equal(t, "App1", f.Apps[0].ID)
	port, ok := f.Apps[0].Property(types.PropPort)
	require.True(t, ok)
	assert.Equal(t, "9090", port.Value)
	assert.Equal(t, "App2", f.Apps[1].ID)
}

func TestDetachRemovesOneRecord(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "servers.yaml"))
	require.NoError(t, s.WriteConfigApplications([]types.AppConfig{tomcatConfig("App1"), tomcatConfig("App2")}))

	require.NoError(t, s.DetachConfigApplication("App1"))

	f, err := s.ReadConfigFile()
	require.NoError(t, err)
	require.Len(t, f.Apps, 1)
	assert.Equal(t, "App2", f.Apps[0].ID)

	// Detaching an absent id is a no-op.
	require.NoError(t, s.DetachConfigApplication("App9"))
}

func TestReadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apps: [not a mapping"), 0o644))

	_, err := NewFileStore(path).ReadConfigFile()
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.InvalidInternalResource))
}

func TestMemStoreDetachTracking(t *testing.T) {
	m := NewMemStore(tomcatConfig("App1"))
	require.NoError(t, m.DetachConfigApplication("App1"))
	assert.Equal(t, []string{"App1"}, m.Detached)
	assert.Empty(t, m.Records())
}
