// Package tomcat manages Apache Tomcat instances: catalina control scripts
// run under a pty, WAR deployment into webapps, and port discovery from
// conf/server.xml.
package tomcat

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/goofcode/just-start-server/internal/app"
	"github.com/goofcode/just-start-server/internal/infrastructure/logging"
	"github.com/goofcode/just-start-server/internal/kinds/proc"
	"github.com/goofcode/just-start-server/internal/shared/apperr"
	"github.com/goofcode/just-start-server/internal/shared/id"
	"github.com/goofcode/just-start-server/internal/shared/types"
)

const (
	defaultPort  = "8080"
	startTimeout = 90 * time.Second
	stopTimeout  = 30 * time.Second
)

// Tomcat is one managed Tomcat installation. AppPath points at
// CATALINA_HOME.
type Tomcat struct {
	*app.Base
	log *logging.Logger

	mu      sync.Mutex
	proc    *proc.Process
	xmlPath string
}

// New constructs a not-yet-initialized handle carrying the kind's default
// property template.
func New(appID, workspace string, log *logging.Logger) *Tomcat {
	cfg := &types.AppConfig{
		ID:         appID,
		Type:       types.KindTomcat,
		Properties: Template(),
	}
	return &Tomcat{
		Base: app.NewBase("Apache Tomcat", workspace, cfg),
		log:  log.Named("tomcat").WithApp(appID),
	}
}

// Template is the kind's pure property set. Changeable values survive
// reconciliation; the context path always follows the template.
func Template() []types.Property {
	return []types.Property{
		{Key: types.PropPort, Value: defaultPort, Changeable: true},
		{Key: types.PropJVMOptions, Value: "", Changeable: true},
		{Key: types.PropContextPath, Value: "ROOT", Changeable: false},
	}
}

// Init verifies the CATALINA_HOME layout and discovers the connector port
// from server.xml when the user has not overridden it.
func (t *Tomcat) Init() error {
	home := t.AppPath()
	if home == "" {
		return apperr.New(apperr.NotReady, "no application path configured")
	}

	if fi, err := os.Stat(home); err != nil || !fi.IsDir() {
		return apperr.New(apperr.InaccessibleResources, home)
	}
	if _, err := os.Stat(t.catalina()); err != nil {
		return apperr.New(apperr.InvalidInternalResource, t.catalina())
	}
	if _, err := os.Stat(filepath.Join(home, "webapps")); err != nil {
		return apperr.New(apperr.InvalidInternalResource, filepath.Join(home, "webapps"))
	}

	xmlPath, err := findServerXML(home)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.xmlPath = xmlPath
	t.mu.Unlock()

	// Adopt the installation's connector port unless the user already
	// edited the property.
	if p, ok := t.Config().Property(types.PropPort); ok && p.Value == defaultPort {
		if port, err := connectorPort(xmlPath); err == nil && port > 0 {
			t.Config().SetProperty(types.PropPort, strconv.Itoa(port), true)
		}
	}

	t.log.Debug("initialized", zap.String("catalina_home", home))
	return nil
}

// Deploy locates the most recent WAR under the workspace and copies it
// into webapps under the configured context path.
func (t *Tomcat) Deploy(ctx context.Context, sink app.LogSink) error {
	if sink == nil {
		sink = app.NopSink{}
	}

	war, err := t.findDeployable()
	if err != nil {
		return err
	}

	mtype, err := mimetype.DetectFile(war)
	if err != nil {
		return fmt.Errorf("%w: %s", apperr.New(apperr.InaccessibleResources, war), err)
	}
	if !mtype.Is("application/jar") && !mtype.Is("application/zip") {
		return apperr.Newf(apperr.NotMatchConfDeploy, "%s is %s, not a web archive", war, mtype.String())
	}

	contextPath := "ROOT"
	if p, ok := t.Config().Property(types.PropContextPath); ok && p.Value != "" {
		contextPath = p.Value
	}
	target := filepath.Join(t.AppPath(), "webapps", contextPath+".war")

	sink.Append(fmt.Sprintf("deploying %s -> %s", war, target))
	if err := copyFile(ctx, war, target); err != nil {
		return err
	}
	sink.Append("deploy complete")

	t.log.Info("deployed", zap.String("war", war), zap.String("target", target))
	return nil
}

// Start runs catalina under a pty and waits for the connector to accept.
func (t *Tomcat) Start(ctx context.Context, sink app.LogSink) error {
	return t.launch(ctx, sink, false)
}

// Debug starts the instance with JPDA enabled and records the debug
// session name.
func (t *Tomcat) Debug(ctx context.Context, sink app.LogSink) error {
	return t.launch(ctx, sink, true)
}

func (t *Tomcat) launch(ctx context.Context, sink app.LogSink, debug bool) error {
	t.mu.Lock()
	if t.proc != nil && t.proc.Running() {
		t.mu.Unlock()
		return apperr.New(apperr.NotReady, "instance already running")
	}
	t.mu.Unlock()

	port := t.ServicePort()
	if port > 0 && !proc.PortAvailable(port) {
		return apperr.Newf(apperr.NotAvailablePort, "%d", port)
	}

	t.SetStatus(types.StatusPreparing)

	env := map[string]string{"CATALINA_HOME": t.AppPath()}
	if p, ok := t.Config().Property(types.PropJVMOptions); ok && p.Value != "" {
		env["JAVA_OPTS"] = p.Value
	}

	args := []string{"run"}
	if debug {
		args = []string{"jpda", "run"}
		env["JPDA_ADDRESS"] = strconv.Itoa(port + 1000)
		env["JPDA_SUSPEND"] = "n"
		t.SetDebugSessionName(id.NewDebugSessionName(t.ID()))
	}

	p, err := proc.Start(proc.Command{
		Name: t.catalina(),
		Args: args,
		Dir:  t.AppPath(),
		Env:  env,
	}, sink)
	if err != nil {
		t.SetStatus(types.StatusStop)
		return fmt.Errorf("%w: %s", apperr.New(apperr.FatalFailure, "starting catalina"), err)
	}

	t.mu.Lock()
	t.proc = p
	t.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if port > 0 {
		if err := proc.WaitPort(waitCtx, port); err != nil {
			p.Terminate(5 * time.Second)
			t.SetStatus(types.StatusStop)
			return apperr.Newf(apperr.NotReady, "connector on %d did not come up", port)
		}
	}

	t.SetStatus(types.StatusRunning)
	t.log.Info("started", zap.Int("port", port), zap.Bool("debug", debug), zap.Int("pid", p.PID()))

	// The instance owns its status: flip to stop when the process exits.
	go func() {
		<-p.Done()
		t.SetStatus(types.StatusStop)
		t.log.Info("process exited", zap.Error(p.Err()))
	}()

	return nil
}

// Stop runs catalina stop and terminates the process if it lingers.
func (t *Tomcat) Stop(ctx context.Context, sink app.LogSink) error {
	stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	err := proc.Run(stopCtx, proc.Command{
		Name: t.catalina(),
		Args: []string{"stop"},
		Dir:  t.AppPath(),
		Env:  map[string]string{"CATALINA_HOME": t.AppPath()},
	}, sink)

	t.mu.Lock()
	p := t.proc
	t.mu.Unlock()
	if p != nil && p.Running() {
		p.Terminate(5 * time.Second)
	}

	t.SetStatus(types.StatusStop)
	if err != nil {
		return fmt.Errorf("%w: %s", apperr.New(apperr.FatalFailure, "catalina stop"), err)
	}
	return nil
}

// Dispose releases the handle. A disposed handle must not be reused.
func (t *Tomcat) Dispose() error {
	t.mu.Lock()
	p := t.proc
	t.proc = nil
	t.mu.Unlock()

	if p != nil && p.Running() {
		p.Terminate(5 * time.Second)
	}
	t.SetStatus(types.StatusStop)
	return nil
}

// FindVersion reads the installed version from RELEASE-NOTES, falling back
// to the catalina.jar manifest.
func (t *Tomcat) FindVersion() (string, error) {
	if v, err := versionFromReleaseNotes(filepath.Join(t.AppPath(), "RELEASE-NOTES")); err == nil {
		return v, nil
	}
	return versionFromJarManifest(filepath.Join(t.AppPath(), "lib", "catalina.jar"))
}

// ValidateSource reports whether AppPath holds a Tomcat installation of a
// compatible major version. Implements the optional SourceValidator
// capability.
func (t *Tomcat) ValidateSource(version string) (bool, error) {
	if _, err := os.Stat(t.catalina()); err != nil {
		return false, nil
	}
	if version == "" {
		return true, nil
	}

	installed, err := t.FindVersion()
	if err != nil {
		return false, err
	}
	return majorOf(installed) == majorOf(version), nil
}

func (t *Tomcat) catalina() string {
	return filepath.Join(t.AppPath(), "bin", "catalina.sh")
}

// findDeployable globs the workspace for WAR files, newest first.
func (t *Tomcat) findDeployable() (string, error) {
	pattern := filepath.Join(t.Workspace(), "**", "*.war")
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return "", fmt.Errorf("%w: %s", apperr.New(apperr.InaccessibleResources, t.Workspace()), err)
	}
	if len(matches) == 0 {
		return "", apperr.New(apperr.NotFoundTargetDeploy, pattern)
	}

	newest := matches[0]
	newestMod := time.Time{}
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && fi.ModTime().After(newestMod) {
			newest = m
			newestMod = fi.ModTime()
		}
	}
	return newest, nil
}

func copyFile(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: %s", apperr.New(apperr.InaccessibleResources, src), err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%w: %s", apperr.New(apperr.InaccessibleResources, dst), err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("%w: %s", apperr.New(apperr.FatalFailure, "copying archive"), err)
	}
	return out.Sync()
}
