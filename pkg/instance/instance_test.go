package instance

import "testing"

func TestGetIDPrefersEnv(t *testing.T) {
	t.Setenv("NOTIFY_INSTANCE_ID", "worker-7")
	if got := GetID(); got != "worker-7" {
		t.Fatalf("expected worker-7, got %q", got)
	}
}

func TestGetIDFallsBack(t *testing.T) {
	t.Setenv("NOTIFY_INSTANCE_ID", "")
	if GetID() == "" {
		t.Fatal("expected a non-empty id")
	}
}
