package config

import "testing"

func TestRuntimeConfig_NilReceiverReturnsDefaults(t *testing.T) {
	var r *RuntimeConfig = nil

	if got := r.GetUserAgent(); got != DefaultUserAgent() {
		t.Errorf("GetUserAgent = %q, want %q", got, DefaultUserAgent())
	}
	if got := r.GetThreadCount(); got != DefaultThreadCount {
		t.Errorf("GetThreadCount = %d, want %d", got, DefaultThreadCount)
	}
	if got := r.GetChunkSize(); got != DefaultChunkMB*1024*1024 {
		t.Errorf("GetChunkSize = %d, want %d", got, DefaultChunkMB*1024*1024)
	}
	if got := r.GetMaxConnectionsPerHost(); got != MaxConnectionsPerHost {
		t.Errorf("GetMaxConnectionsPerHost = %d, want %d", got, MaxConnectionsPerHost)
	}
	if got := r.GetMaxTaskRetries(); got != DefaultMaxTaskRetries {
		t.Errorf("GetMaxTaskRetries = %d, want %d", got, DefaultMaxTaskRetries)
	}
}

func TestRuntimeConfig_ZeroValuesReturnDefaults(t *testing.T) {
	r := &RuntimeConfig{}

	if got := r.GetThreadCount(); got != DefaultThreadCount {
		t.Errorf("GetThreadCount = %d, want %d", got, DefaultThreadCount)
	}
	if got := r.GetChunkSize(); got != DefaultChunkMB*1024*1024 {
		t.Errorf("GetChunkSize = %d, want %d", got, DefaultChunkMB*1024*1024)
	}
	if got := r.GetUserAgent(); got != DefaultUserAgent() {
		t.Errorf("GetUserAgent = %q, want %q", got, DefaultUserAgent())
	}
}

func TestNewRuntimeConfig_AppliesOverrides(t *testing.T) {
	r := NewRuntimeConfig(16, 4, "custom-ua/1.0")

	if got := r.GetThreadCount(); got != 16 {
		t.Errorf("GetThreadCount = %d, want 16", got)
	}
	if got := r.GetChunkSize(); got != 4*1024*1024 {
		t.Errorf("GetChunkSize = %d, want %d", got, 4*1024*1024)
	}
	if got := r.GetUserAgent(); got != "custom-ua/1.0" {
		t.Errorf("GetUserAgent = %q, want custom-ua/1.0", got)
	}
}

func TestNewRuntimeConfig_InvalidFallsBackToDefaults(t *testing.T) {
	r := NewRuntimeConfig(0, 0, "")

	if got := r.GetThreadCount(); got != DefaultThreadCount {
		t.Errorf("GetThreadCount = %d, want %d", got, DefaultThreadCount)
	}
	if got := r.GetChunkSize(); got != DefaultChunkMB*1024*1024 {
		t.Errorf("GetChunkSize = %d, want %d", got, DefaultChunkMB*1024*1024)
	}
}
