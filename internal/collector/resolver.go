package collector

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/coral-mesh/connstats/internal/database"
)

// UnknownUPID is used for sockets whose owning process is not visible,
// typically because the collector runs without privileges.
const UnknownUPID = "0:0"

// Resolver builds process metadata for a pid. StartTime is the cheap check
// used to tell a cached process from a new one that reused its pid.
type Resolver interface {
	StartTime(ctx context.Context, pid int32) (int64, error)
	Resolve(ctx context.Context, pid int32) (*database.ProcessMetadata, error)
}

// HostResolver reads process details from the local host using gopsutil.
// Context labels come from the target process environment, the way a
// Kubernetes pod or a container runtime exposes them.
type HostResolver struct {
	node string
}

// NewHostResolver creates a resolver. The node label falls back to the
// host name when a process does not carry NODE_NAME.
func NewHostResolver(ctx context.Context) *HostResolver {
	node := ""
	if info, err := host.InfoWithContext(ctx); err == nil {
		node = info.Hostname
	}
	if node == "" {
		node, _ = os.Hostname()
	}
	return &HostResolver{node: node}
}

// StartTime returns the process creation time in milliseconds.
func (r *HostResolver) StartTime(ctx context.Context, pid int32) (int64, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return 0, fmt.Errorf("failed to open process %d: %w", pid, err)
	}
	return createTime(ctx, p)
}

// Resolve implements Resolver.
func (r *HostResolver) Resolve(ctx context.Context, pid int32) (*database.ProcessMetadata, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("failed to open process %d: %w", pid, err)
	}

	created, err := createTime(ctx, p)
	if err != nil {
		return nil, err
	}

	meta := &database.ProcessMetadata{
		UPID: FormatUPID(pid, created),
		PID:  int64(pid),
	}

	// Name, cmdline and environment are best effort; another user's
	// process may hide them.
	name, _ := p.NameWithContext(ctx)
	meta.Cmdline, _ = p.CmdlineWithContext(ctx)
	environ, _ := p.EnvironWithContext(ctx)

	applyEnviron(meta, parseEnviron(environ), name, r.node)
	return meta, nil
}

func createTime(ctx context.Context, p *process.Process) (int64, error) {
	created, err := p.CreateTimeWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read create time of %d: %w", p.Pid, err)
	}
	return created, nil
}

// FormatUPID builds the unique process id from a pid and its start time in
// milliseconds. Pids are reused; the pair is not.
func FormatUPID(pid int32, createTimeMs int64) string {
	return fmt.Sprintf("%d:%d", pid, createTimeMs)
}

func parseEnviron(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			env[k] = v
		}
	}
	return env
}

// applyEnviron fills the context labels of meta.
func applyEnviron(meta *database.ProcessMetadata, env map[string]string, name, node string) {
	if env["KUBERNETES_SERVICE_HOST"] != "" {
		meta.Pod = env["HOSTNAME"]
	}
	meta.Service = firstNonEmpty(env["OTEL_SERVICE_NAME"], env["SERVICE_NAME"], name)
	meta.Namespace = env["POD_NAMESPACE"]
	meta.Container = env["CONTAINER_NAME"]
	meta.Node = firstNonEmpty(env["NODE_NAME"], node)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// stamp marks meta as seen at t.
func stamp(meta *database.ProcessMetadata, t time.Time) *database.ProcessMetadata {
	m := *meta
	if m.FirstSeen.IsZero() {
		m.FirstSeen = t
	}
	m.LastSeen = t
	return &m
}
