package dataframe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEq_NumericNormalisation(t *testing.T) {
	tests := []struct {
		name  string
		a, b  any
		equal bool
	}{
		{"int64 vs int", int64(27017), 27017, true},
		{"int32 vs uint16", int32(27017), uint16(27017), true},
		{"float vs int", 27017.0, 27017, true},
		{"different", int64(27018), 27017, false},
		{"string vs int", "27017", 27017, false},
		{"nil vs nil", nil, nil, true},
		{"nil vs value", nil, 27017, false},
		{"strings", "mongo", "mongo", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, equal(tt.a, tt.b))
		})
	}
}

func TestExpr(t *testing.T) {
	now := time.Now()
	f := newSourceFrame(t,
		sourceRow(now, "10.0.0.1", 27017, Context{LabelService: "orders"}),
		sourceRow(now, "10.0.0.2", 5432, nil),
	)
	df, err := f.WithContext(LabelService, "service")
	require.NoError(t, err)

	out, err := df.Where(Expr(`remote_port == 27017 && conn_open > 0`))
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "10.0.0.1", out.Row(0)[2])

	out, err = df.Where(Expr(`service == "" || remote_addr.startsWith("10.0.0.1")`))
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())
}

func TestExpr_Errors(t *testing.T) {
	f := newSourceFrame(t, sourceRow(time.Now(), "10.0.0.1", 27017, nil))

	_, err := f.Where(Expr(`remote_prot == 27017`))
	assert.ErrorIs(t, err, ErrInvalidExpression)

	_, err = f.Where(Expr(`remote_port ==`))
	assert.ErrorIs(t, err, ErrInvalidExpression)

	_, err = f.Where(Expr(`remote_port + 1`))
	assert.Error(t, err, "non-bool result must be rejected")
}
