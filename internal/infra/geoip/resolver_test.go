package geoip

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestOpenEmptyPath(t *testing.T) {
	r, err := Open("  ")
	if err != nil || r != nil {
		t.Fatalf("Open(empty) = %v, %v; want nil, nil", r, err)
	}
	if _, err := r.CountryCode("203.0.113.4"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("nil resolver error = %v, want ErrUnavailable", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("nil Close() = %v", err)
	}
}

func TestOpenMissingDatabase(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.mmdb")); err == nil {
		t.Fatalf("Open(missing) succeeded")
	}
}
