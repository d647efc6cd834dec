package rest

import (
	"context"
	"database/sql"
	"os"
	"runtime"
	"time"
)

// SystemEndpoints registers the system group. DBStats is wired by the
// application from the storage driver.
type SystemEndpoints struct {
	Environment string
	Version     string
	StartedAt   time.Time

	DBStats func() sql.DBStats
}

func (e *SystemEndpoints) Register(r *Registry) {
	r.RegisterGroup("system", "System information")

	r.MustRegister(&Endpoint{
		Group:       "system",
		Name:        "retrieve_info",
		Description: "Retrieve process, application and database information",
		Permissions: map[string]string{
			"GET": "system.retrieve_info",
		},
		UserTokenNeeded: false,
		Handler:         e.retrieveInfo,
	})
}

func (e *SystemEndpoints) retrieveInfo(ctx context.Context, req *Request) (*Response, error) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	info := map[string]any{
		"process": map[string]any{
			"pid":         os.Getpid(),
			"used_memory": mem.Alloc,
			"goroutines":  runtime.NumGoroutine(),
		},
		"application": map[string]any{
			"environment": e.Environment,
			"version":     e.Version,
			"started":     formatTime(e.StartedAt),
		},
	}

	if e.DBStats != nil {
		stats := e.DBStats()
		info["database"] = map[string]any{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
		}
	}

	return NewRecord(info), nil
}
