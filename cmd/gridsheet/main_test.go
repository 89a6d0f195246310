package main

import (
	"context"
	"testing"

	"go.alis.build/alog"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		spec    string
		wantErr bool
	}{
		{"memory", false},
		{"dir:" + dir, false},
		{"dir:", true},
		{"gs://", true},
		{"gs://bucket/nested", true},
		{"s3://bucket", true},
		{"", true},
	}
	for _, tt := range tests {
		store, closeStore, err := openStore(ctx, tt.spec)
		if (err != nil) != tt.wantErr {
			t.Errorf("openStore(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		if err := store.Put(ctx, "probe/key.json", []byte("{}"), "application/json"); err != nil {
			t.Errorf("openStore(%q): put failed: %v", tt.spec, err)
		}
		if _, err := store.Get(ctx, "probe/key.json"); err != nil {
			t.Errorf("openStore(%q): get failed: %v", tt.spec, err)
		}
		if err := closeStore(); err != nil {
			t.Errorf("openStore(%q): close failed: %v", tt.spec, err)
		}
	}
}

func TestDirStoreSharedAcrossServices(t *testing.T) {
	ctx := context.Background()
	storeSpec = "dir:" + t.TempDir()
	t.Cleanup(func() { storeSpec = "dir:gridsheet-data" })

	svc, closeStore, err := openService(ctx)
	if err != nil {
		t.Fatalf("openService: %v", err)
	}
	defer closeStore()
	sheet, err := svc.New(ctx, "Persisted")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	again, closeAgain, err := openService(ctx)
	if err != nil {
		t.Fatalf("openService: %v", err)
	}
	defer closeAgain()
	loaded, err := again.Load(ctx, sheet.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != "Persisted" {
		t.Errorf("Name = %q, want %q", loaded.Name, "Persisted")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    alog.LogLevel
		wantErr bool
	}{
		{"debug", alog.LevelDebug, false},
		{"INFO", alog.LevelInfo, false},
		{"warn", alog.LevelWarning, false},
		{"error", alog.LevelError, false},
		{"loud", 0, true},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLevel(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
