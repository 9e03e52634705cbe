package addon

import (
	"os"
	"testing"
)

func TestRegisterLookupRoundTrip(t *testing.T) {
	TestReset()
	defer TestReset()

	f := &Factory{Kind: KindExtension, Name: "echo"}
	if err := Register(f); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, ok := Lookup(KindExtension, "echo")
	if !ok || got != f {
		t.Fatalf("Lookup did not return the registered factory")
	}
	if _, ok := Lookup(KindExtensionGroup, "echo"); ok {
		t.Fatalf("Lookup must distinguish by Kind, not just Name")
	}
}

func TestRegisterDuplicateRejected(t *testing.T) {
	TestReset()
	defer TestReset()

	if err := Register(&Factory{Kind: KindProtocol, Name: "tcp"}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := Register(&Factory{Kind: KindProtocol, Name: "tcp"}); err == nil {
		t.Fatalf("expected duplicate (kind, name) registration to fail")
	}
}

func TestUnregisterRemovesFactory(t *testing.T) {
	TestReset()
	defer TestReset()

	_ = Register(&Factory{Kind: KindAddonLoader, Name: "loader"})
	Unregister(KindAddonLoader, "loader")
	if _, ok := Lookup(KindAddonLoader, "loader"); ok {
		t.Fatalf("expected factory to be gone after Unregister")
	}
}

func TestUnregisterSkippedWhenDisableEnvSet(t *testing.T) {
	TestReset()
	defer TestReset()

	_ = Register(&Factory{Kind: KindAddonLoader, Name: "loader"})
	os.Setenv(disableUnregisterEnvVar, "1")
	defer os.Unsetenv(disableUnregisterEnvVar)

	Unregister(KindAddonLoader, "loader")
	if _, ok := Lookup(KindAddonLoader, "loader"); !ok {
		t.Fatalf("Unregister should be a no-op while %s is set", disableUnregisterEnvVar)
	}
}
