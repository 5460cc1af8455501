package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestRenderRegisteredCode(t *testing.T) {
	err := New(NotFoundWorkspace, "")
	if err.Error() != "no workspace location has been set" {
		t.Errorf("unexpected rendering: %q", err.Error())
	}
}

func TestRenderWithDetail(t *testing.T) {
	err := New(NoValidAppType, "wildfly")
	want := "no valid application type is registered (wildfly)"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestRenderDetailAsCodeFallback(t *testing.T) {
	// Unregistered code whose detail is itself a known code resolves to
	// that code's message.
	err := New(Code("Bogus"), string(NotAvailablePort))
	if err.Error() != "the configured port is not available" {
		t.Errorf("unexpected rendering: %q", err.Error())
	}
}

func TestRenderDetailVerbatim(t *testing.T) {
	err := New(Code("Bogus"), "something else went wrong")
	if err.Error() != "something else went wrong" {
		t.Errorf("unexpected rendering: %q", err.Error())
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := Newf(NotFound, "id %s", "App123")
	if !errors.Is(err, New(NotFound, "")) {
		t.Error("expected errors.Is to match by code")
	}
	if errors.Is(err, New(NotReady, "")) {
		t.Error("expected errors.Is to reject a different code")
	}
}

func TestCodeOfWrappedChain(t *testing.T) {
	err := fmt.Errorf("loading record: %w", New(InvalidInternalResource, "servers.yaml"))
	code, ok := CodeOf(err)
	if !ok || code != InvalidInternalResource {
		t.Errorf("expected InvalidInternalResource, got %q ok=%v", code, ok)
	}
	if !IsCode(err, InvalidInternalResource) {
		t.Error("expected IsCode to see through the wrap")
	}
	if _, ok := CodeOf(errors.New("plain")); ok {
		t.Error("expected no code for a plain error")
	}
}
