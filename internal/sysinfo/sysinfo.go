// Package sysinfo describes the machine a benchmark ran on.
package sysinfo

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

type Info struct {
	Platform string `json:"platform"`
	CPU      string `json:"cpu"`
	Cores    int    `json:"cores"`
	RAM      string `json:"ram"`
}

func (i Info) String() string {
	return fmt.Sprintf("%s, %s (%d cores), %s", i.Platform, i.CPU, i.Cores, i.RAM)
}

// Collect gathers what it can; fields it cannot read are left as "unknown".
func Collect(ctx context.Context) Info {
	info := Info{Platform: runtime.GOOS, CPU: "unknown", Cores: runtime.NumCPU(), RAM: "unknown"}
	if h, err := host.InfoWithContext(ctx); err == nil && h.Platform != "" {
		info.Platform = h.Platform
		if h.PlatformVersion != "" {
			info.Platform += " " + h.PlatformVersion
		}
	}
	if cs, err := cpu.InfoWithContext(ctx); err == nil && len(cs) > 0 {
		info.CPU = cs[0].ModelName
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.RAM = fmt.Sprintf("%d GB", vm.Total/1024/1024/1024)
	}
	return info
}
