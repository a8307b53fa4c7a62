package zeroconf_test

import (
	"context"
	"testing"
	"time"

	"github.com/micro-nova/lcdb-go/internal/zeroconf"
)

func TestPortFromAddr(t *testing.T) {
	tests := []struct {
		addr    string
		want    int
		wantErr bool
	}{
		{":8080", 8080, false},
		{"127.0.0.1:80", 80, false},
		{"[::1]:9000", 9000, false},
		{"8080", 0, true},
		{":http", 0, true},
		{":0", 0, true},
	}
	for _, tc := range tests {
		got, err := zeroconf.PortFromAddr(tc.addr)
		if (err != nil) != tc.wantErr {
			t.Errorf("PortFromAddr(%q) error = %v, wantErr %v", tc.addr, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("PortFromAddr(%q) = %d, want %d", tc.addr, got, tc.want)
		}
	}
}

// TestStart_Cancel verifies Start returns once its context is cancelled.
func TestStart_Cancel(t *testing.T) {
	svc := zeroconf.New("lcdbd-test", 18080, []string{"ldo=lcdb_ldo"})

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- svc.Start(ctx)
	}()

	select {
	case err := <-done:
		// mDNS may be unavailable in the test environment; returning is
		// what matters.
		if err != nil {
			t.Logf("Start returned error (may be expected in CI): %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Start did not return within 3 seconds after context cancellation")
	}
}
