package collector

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/connstats/internal/database"
)

func TestApplyEnviron(t *testing.T) {
	tests := []struct {
		name string
		env  []string
		want database.ProcessMetadata
	}{
		{
			name: "kubernetes pod",
			env: []string{
				"KUBERNETES_SERVICE_HOST=10.96.0.1",
				"HOSTNAME=orders-7d9f",
				"OTEL_SERVICE_NAME=orders",
				"POD_NAMESPACE=shop",
				"CONTAINER_NAME=app",
				"NODE_NAME=node-a",
			},
			want: database.ProcessMetadata{Pod: "orders-7d9f", Service: "orders", Namespace: "shop", Container: "app", Node: "node-a"},
		},
		{
			name: "hostname outside kubernetes is not a pod",
			env:  []string{"HOSTNAME=laptop", "SERVICE_NAME=billing"},
			want: database.ProcessMetadata{Service: "billing", Node: "host-1"},
		},
		{
			name: "falls back to process name",
			env:  []string{"PATH=/usr/bin", "MALFORMED"},
			want: database.ProcessMetadata{Service: "mongod", Node: "host-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got database.ProcessMetadata
			applyEnviron(&got, parseEnviron(tt.env), "mongod", "host-1")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatUPID(t *testing.T) {
	assert.Equal(t, "42:1717243200000", FormatUPID(42, 1717243200000))
}

func TestHostResolver_Self(t *testing.T) {
	ctx := context.Background()
	r := NewHostResolver(ctx)

	meta, err := r.Resolve(ctx, int32(os.Getpid()))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(meta.UPID, strconv.Itoa(os.Getpid())+":"), meta.UPID)
	assert.Equal(t, int64(os.Getpid()), meta.PID)
	assert.NotEmpty(t, meta.Service)
	assert.NotEmpty(t, meta.Node)

	created, err := r.StartTime(ctx, int32(os.Getpid()))
	require.NoError(t, err)
	assert.Equal(t, FormatUPID(int32(os.Getpid()), created), meta.UPID)
}
