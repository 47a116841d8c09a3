package sysinfo

import (
	"context"
	"testing"
)

func TestCollectFillsEveryField(t *testing.T) {
	info := Collect(context.Background())
	if info.Platform == "" || info.CPU == "" || info.RAM == "" {
		t.Fatalf("empty field in %+v", info)
	}
	if info.Cores < 1 {
		t.Fatalf("cores = %d", info.Cores)
	}
	if info.String() == "" {
		t.Fatal("empty summary")
	}
}
