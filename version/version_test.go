package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	if info.Version != Version {
		t.Errorf("Expected version %q, got %q", Version, info.Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("Expected go version %q, got %q", runtime.Version(), info.GoVersion)
	}
	if !strings.Contains(info.String(), info.Platform) {
		t.Errorf("Expected String() to mention the platform, got %q", info.String())
	}
}
