package harness

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/mem"
	"go.uber.org/zap"
)

// virtualMemory is swapped in tests.
var virtualMemory = mem.VirtualMemory

// checkHostMemory warns when the host has less memory than a unit may claim. It never fails a run.
func checkHostMemory(ctx context.Context, limit int64) bool {
	if limit <= 0 {
		return true
	}

	vm, err := virtualMemory()
	if err != nil {
		zlog.Ctx(ctx).Warn("unable to read host memory", zap.Error(err))
		return true
	}

	if vm.Total < uint64(limit) {
		zlog.Ctx(ctx).Warn("host memory is below the container memory limit",
			zap.String("host_total", humanize.IBytes(vm.Total)),
			zap.String("limit", humanize.IBytes(uint64(limit))),
		)
		return false
	}
	return true
}
