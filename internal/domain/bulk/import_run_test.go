package bulk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status ImportStatus
		want   bool
	}{
		{ImportStatusPending, false},
		{ImportStatusProcessing, false},
		{ImportStatusCompleted, true},
		{ImportStatusRejected, true},
		{ImportStatusFailed, true},
		{ImportStatusCancelled, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.True(t, tt.status.IsValid())
			assert.Equal(t, tt.want, tt.status.IsTerminal())
		})
	}
	assert.False(t, ImportStatus("bogus").IsValid())
}

func TestNewImportRun(t *testing.T) {
	run, err := NewImportRun("productos.xlsx", 2048, "admin")
	require.NoError(t, err)
	assert.Equal(t, ImportStatusPending, run.Status)
	assert.Equal(t, "admin", run.ImportedBy)
	assert.NotEmpty(t, run.ID)

	_, err = NewImportRun("", 10, "admin")
	assert.Error(t, err)

	_, err = NewImportRun("a.xlsx", -1, "admin")
	assert.Error(t, err)
}

func TestImportRun_Lifecycle(t *testing.T) {
	t.Run("completes with counts", func(t *testing.T) {
		run, _ := NewImportRun("a.xlsx", 1, "admin")
		require.NoError(t, run.Start(12))
		require.NoError(t, run.Complete(8, 3, 1))

		assert.Equal(t, ImportStatusCompleted, run.Status)
		assert.Equal(t, 12, run.TotalRows)
		assert.NotNil(t, run.CompletedAt)
		assert.GreaterOrEqual(t, run.Duration().Nanoseconds(), int64(0))
	})

	t.Run("fails when every write failed", func(t *testing.T) {
		run, _ := NewImportRun("a.xlsx", 1, "admin")
		require.NoError(t, run.Start(2))
		require.NoError(t, run.Complete(0, 0, 2))
		assert.Equal(t, ImportStatusFailed, run.Status)
	})

	t.Run("rejects before writes", func(t *testing.T) {
		run, _ := NewImportRun("a.xlsx", 1, "admin")
		errs := []RowError{{Row: 3, Column: "Descripcion", Reason: "required"}}
		require.NoError(t, run.Reject(5, errs))
		assert.Equal(t, ImportStatusRejected, run.Status)

		s, err := run.RowErrorsJSON()
		require.NoError(t, err)
		assert.JSONEq(t, `[{"row":3,"column":"Descripcion","reason":"required"}]`, s)

		assert.Error(t, run.Start(5))
		assert.Error(t, run.Cancel(0, 0, 0))
	})

	t.Run("cancel keeps partial counts", func(t *testing.T) {
		run, _ := NewImportRun("a.xlsx", 1, "admin")
		require.NoError(t, run.Start(30))
		require.NoError(t, run.Cancel(10, 0, 0))
		assert.Equal(t, ImportStatusCancelled, run.Status)
		assert.Equal(t, 10, run.Created)
		assert.Error(t, run.Complete(1, 1, 1))
	})
}

func TestImportRun_RowErrorsJSONRoundTrip(t *testing.T) {
	run := &ImportRun{}
	s, err := run.RowErrorsJSON()
	require.NoError(t, err)
	assert.Equal(t, "[]", s)

	require.NoError(t, run.SetRowErrorsFromJSON(`[{"row":2,"reason":"x"}]`))
	require.Len(t, run.RowErrors, 1)
	assert.Equal(t, 2, run.RowErrors[0].Row)

	assert.Error(t, run.SetRowErrorsFromJSON(`{`))
}
