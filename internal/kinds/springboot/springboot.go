// Package springboot manages executable Spring Boot jars: java -jar under a
// pty, readiness probing against the actuator, and version lookup from the
// jar manifest or a running instance.
package springboot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
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
	startTimeout = 120 * time.Second
	stopGrace    = 10 * time.Second
)

// SpringBoot is one managed executable jar. AppPath names the jar itself.
type SpringBoot struct {
	*app.Base
	log *logging.Logger

	mu   sync.Mutex
	proc *proc.Process

	javaBin string
	rest    *resty.Client
}

// New constructs a not-yet-initialized handle carrying the kind's default
// property template.
func New(appID, workspace string, log *logging.Logger) *SpringBoot {
	cfg := &types.AppConfig{
		ID:         appID,
		Type:       types.KindSpringBoot,
		Properties: Template(),
	}
	return &SpringBoot{
		Base:    app.NewBase("Spring Boot", workspace, cfg),
		log:     log.Named("springboot").WithApp(appID),
		javaBin: "java",
		rest:    resty.New().SetTimeout(5 * time.Second),
	}
}

// Template is the kind's pure property set.
func Template() []types.Property {
	return []types.Property{
		{Key: types.PropPort, Value: defaultPort, Changeable: true},
		{Key: types.PropJVMOptions, Value: "", Changeable: true},
	}
}

// Init verifies AppPath names an executable jar.
func (s *SpringBoot) Init() error {
	jar := s.AppPath()
	if jar == "" {
		return apperr.New(apperr.NotReady, "no application path configured")
	}

	fi, err := os.Stat(jar)
	if err != nil {
		return apperr.New(apperr.InaccessibleResources, jar)
	}
	if fi.IsDir() {
		return apperr.New(apperr.InvalidInternalResource, jar)
	}

	mtype, err := mimetype.DetectFile(jar)
	if err != nil {
		return apperr.New(apperr.InaccessibleResources, jar)
	}
	if !mtype.Is("application/jar") && !mtype.Is("application/zip") {
		return apperr.Newf(apperr.InvalidInternalResource, "%s is %s, not a jar", jar, mtype.String())
	}

	s.log.Debug("initialized", zap.String("jar", jar))
	return nil
}

// Deploy replaces the configured jar with the newest build artifact found
// under the workspace.
func (s *SpringBoot) Deploy(ctx context.Context, sink app.LogSink) error {
	if sink == nil {
		sink = app.NopSink{}
	}

	artifact, err := s.findArtifact()
	if err != nil {
		return err
	}

	mtype, err := mimetype.DetectFile(artifact)
	if err != nil {
		return fmt.Errorf("%w: %s", apperr.New(apperr.InaccessibleResources, artifact), err)
	}
	if !mtype.Is("application/jar") && !mtype.Is("application/zip") {
		return apperr.Newf(apperr.NotMatchConfDeploy, "%s is %s, not a jar", artifact, mtype.String())
	}

	sink.Append(fmt.Sprintf("deploying %s -> %s", artifact, s.AppPath()))
	if err := copyFile(ctx, artifact, s.AppPath()); err != nil {
		return err
	}
	sink.Append("deploy complete")

	s.log.Info("deployed", zap.String("artifact", artifact))
	return nil
}

// Start runs the jar and waits for the service port, then confirms the app
// is answering over HTTP.
func (s *SpringBoot) Start(ctx context.Context, sink app.LogSink) error {
	return s.launch(ctx, sink, false)
}

// Debug starts the jar with a JDWP agent listening next to the service
// port and records the debug session name.
func (s *SpringBoot) Debug(ctx context.Context, sink app.LogSink) error {
	return s.launch(ctx, sink, true)
}

func (s *SpringBoot) launch(ctx context.Context, sink app.LogSink, debug bool) error {
	s.mu.Lock()
	if s.proc != nil && s.proc.Running() {
		s.mu.Unlock()
		return apperr.New(apperr.NotReady, "instance already running")
	}
	s.mu.Unlock()

	port := s.ServicePort()
	if port > 0 && !proc.PortAvailable(port) {
		return apperr.Newf(apperr.NotAvailablePort, "%d", port)
	}

	s.SetStatus(types.StatusPreparing)

	var args []string
	if debug {
		debugPort := port + 1000
		args = append(args, fmt.Sprintf("-agentlib:jdwp=transport=dt_socket,server=y,suspend=n,address=%d", debugPort))
		s.SetDebugSessionName(id.NewDebugSessionName(s.ID()))
	}
	if p, ok := s.Config().Property(types.PropJVMOptions); ok && p.Value != "" {
		args = append(args, strings.Fields(p.Value)...)
	}
	args = append(args, "-jar", s.AppPath())
	if port > 0 {
		args = append(args, "--server.port="+strconv.Itoa(port))
	}

	p, err := proc.Start(proc.Command{
		Name: s.javaBin,
		Args: args,
		Dir:  filepath.Dir(s.AppPath()),
	}, sink)
	if err != nil {
		s.SetStatus(types.StatusStop)
		return fmt.Errorf("%w: %s", apperr.New(apperr.FatalFailure, "starting java"), err)
	}

	s.mu.Lock()
	s.proc = p
	s.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if port > 0 {
		if err := proc.WaitPort(waitCtx, port); err != nil {
			p.Terminate(stopGrace)
			s.SetStatus(types.StatusStop)
			return apperr.Newf(apperr.NotReady, "port %d did not come up", port)
		}
		// Best effort: the port accepting does not mean the context
		// finished booting.
		s.probeReady(waitCtx, port)
	}

	s.SetStatus(types.StatusRunning)
	s.log.Info("started", zap.Int("port", port), zap.Bool("debug", debug), zap.Int("pid", p.PID()))

	go func() {
		<-p.Done()
		s.SetStatus(types.StatusStop)
		s.log.Info("process exited", zap.Error(p.Err()))
	}()

	return nil
}

// probeReady polls the actuator health endpoint until it answers or the
// context expires. Apps without the actuator still pass: any HTTP response
// counts.
func (s *SpringBoot) probeReady(ctx context.Context, port int) {
	client := retryablehttp.NewClient()
	client.RetryMax = 10
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 3 * time.Second
	client.Logger = nil

	req, err := retryablehttp.NewRequest("GET", fmt.Sprintf("http://127.0.0.1:%d/actuator/health", port), nil)
	if err != nil {
		return
	}
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		s.log.Debug("health probe gave up", zap.Error(err))
		return
	}
	resp.Body.Close()
}

// Stop terminates the process, SIGTERM first.
func (s *SpringBoot) Stop(ctx context.Context, sink app.LogSink) error {
	s.mu.Lock()
	p := s.proc
	s.mu.Unlock()

	if p != nil && p.Running() {
		p.Terminate(stopGrace)
	}
	s.SetStatus(types.StatusStop)
	return nil
}

// Dispose releases the handle. A disposed handle must not be reused.
func (s *SpringBoot) Dispose() error {
	s.mu.Lock()
	p := s.proc
	s.proc = nil
	s.mu.Unlock()

	if p != nil && p.Running() {
		p.Terminate(stopGrace)
	}
	s.SetStatus(types.StatusStop)
	return nil
}

// FindVersion asks a running instance's actuator first and falls back to
// the jar manifest.
func (s *SpringBoot) FindVersion() (string, error) {
	if s.Status() == types.StatusRunning {
		if v, err := s.actuatorVersion(); err == nil && v != "" {
			return v, nil
		}
	}
	return manifestVersion(s.AppPath())
}

func (s *SpringBoot) actuatorVersion() (string, error) {
	var info struct {
		Build struct {
			Version string `json:"version"`
		} `json:"build"`
	}
	resp, err := s.rest.R().
		SetResult(&info).
		Get(fmt.Sprintf("http://127.0.0.1:%d/actuator/info", s.ServicePort()))
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("actuator info: %s", resp.Status())
	}
	return info.Build.Version, nil
}

// findArtifact globs the workspace for executable jars, newest first.
// Sources-only jars from a build are still jars; picking the newest matches
// what a fresh build just produced.
func (s *SpringBoot) findArtifact() (string, error) {
	pattern := filepath.Join(s.Workspace(), "**", "*.jar")
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return "", fmt.Errorf("%w: %s", apperr.New(apperr.InaccessibleResources, s.Workspace()), err)
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
		return fmt.Errorf("%w: %s", apperr.New(apperr.FatalFailure, "copying artifact"), err)
	}
	return out.Sync()
}
