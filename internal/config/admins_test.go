package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeAdminsFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write admins file: %v", err)
	}
}

func TestAdminProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admins.yaml")
	writeAdminsFile(t, path, "admins:\n  - 100\n  - 200\n")

	p, err := NewAdminProvider(path)
	if err != nil {
		t.Fatalf("failed to load admins: %v", err)
	}

	if !p.IsAdmin(100) || !p.IsAdmin(200) {
		t.Errorf("expected 100 and 200 to be admins")
	}
	if p.IsAdmin(300) {
		t.Errorf("expected 300 to not be admin")
	}
	if p.Count() != 2 {
		t.Errorf("expected 2 admins, got %d", p.Count())
	}
}

func TestAdminProviderListKeepsFileOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admins.yaml")
	writeAdminsFile(t, path, "admins:\n  - 300\n  - 100\n  - 200\n  - 100\n")

	p, err := NewAdminProvider(path)
	if err != nil {
		t.Fatalf("failed to load admins: %v", err)
	}

	want := []int64{300, 100, 200}
	for i := 0; i < 5; i++ {
		got := p.List()
		if len(got) != len(want) {
			t.Fatalf("expected %d admins, got %d", len(want), len(got))
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("expected order %v, got %v", want, got)
			}
		}
	}
}

func TestAdminProviderReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admins.yaml")
	writeAdminsFile(t, path, "admins:\n  - 100\n")

	p, err := NewAdminProvider(path)
	if err != nil {
		t.Fatalf("failed to load admins: %v", err)
	}

	// без Reload новые записи не видны
	writeAdminsFile(t, path, "admins:\n  - 100\n  - 300\n")
	if p.IsAdmin(300) {
		t.Errorf("expected 300 to be invisible before reload")
	}

	if err := p.Reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !p.IsAdmin(300) {
		t.Errorf("expected 300 to be admin after reload")
	}
}

func TestAdminProviderReloadKeepsOldOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admins.yaml")
	writeAdminsFile(t, path, "admins:\n  - 100\n")

	p, err := NewAdminProvider(path)
	if err != nil {
		t.Fatalf("failed to load admins: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}
	if err := p.Reload(); err == nil {
		t.Fatalf("expected error reloading missing file")
	}
	if !p.IsAdmin(100) {
		t.Errorf("expected old list to survive failed reload")
	}
}
