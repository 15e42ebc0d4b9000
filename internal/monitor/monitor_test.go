package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/battlecode/engine/internal/match"
	"github.com/battlecode/engine/pkg/core"
	"github.com/battlecode/engine/pkg/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(t *testing.T) *match.Context {
	t.Helper()
	ctx := match.NewContext(nil)
	ctx.SetMatch(&core.Match{Name: "monitored"})
	for _, ut := range []unit.UnitType{unit.Worker, unit.Knight} {
		_, err := ctx.Spawn(core.TeamRed, ut, 0, &core.MapLocation{Planet: core.Earth, X: 1, Y: 1})
		require.NoError(t, err)
	}
	ctx.EndRound()
	return ctx
}

func readStatus(t *testing.T, path string) Status {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var st Status
	require.NoError(t, json.Unmarshal(data, &st))
	return st
}

func TestGetStatus(t *testing.T) {
	svc := NewService(Dependencies{
		Context: newContext(t),
		Pending: func() int { return 7 },
	})

	st := svc.GetStatus()
	assert.Equal(t, "monitored", st.MatchName)
	assert.Equal(t, uint32(1), st.Round)
	assert.Equal(t, 2, st.Units)
	assert.Equal(t, 7, st.PendingRows)
}

func TestWriteStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "status.json")
	svc := NewService(Dependencies{Context: newContext(t), StatusPath: path})

	require.NoError(t, svc.WriteStatus())
	st := readStatus(t, path)
	assert.Equal(t, "monitored", st.MatchName)
	assert.Equal(t, 0, st.PendingRows)
}

func TestWriteStatus_NoPath(t *testing.T) {
	svc := NewService(Dependencies{Context: newContext(t)})
	assert.NoError(t, svc.WriteStatus())
}

func TestStartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	svc := NewService(Dependencies{
		Context:    newContext(t),
		StatusPath: path,
		Interval:   10 * time.Millisecond,
	})

	require.NoError(t, svc.Start())
	require.NoError(t, svc.Start())
	assert.True(t, svc.IsRunning())

	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	svc.Stop()
	assert.False(t, svc.IsRunning())
	svc.Stop()

	assert.Equal(t, 2, readStatus(t, path).Units)
}

func TestConcurrentStop(t *testing.T) {
	svc := NewService(Dependencies{
		Context:  newContext(t),
		Interval: time.Hour,
	})

	for range 3 {
		require.NoError(t, svc.Start())

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				svc.Stop()
			}()
		}
		wg.Wait()
		assert.False(t, svc.IsRunning())
	}

	// a stopped run must not flip a restarted one back to stopped
	require.NoError(t, svc.Start())
	assert.True(t, svc.IsRunning())
	svc.Stop()
}
