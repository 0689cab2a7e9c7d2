package container

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shm-depth-go/config"
	"shm-depth-go/internal/feed"
	"shm-depth-go/market"
	"shm-depth-go/shm"
	"shm-depth-go/sim"
)

type fakeComponent struct {
	name     string
	startErr error
	started  bool
	stopped  bool
	order    *[]string
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	*f.order = append(*f.order, "start:"+f.name)
	return nil
}

func (f *fakeComponent) Stop() error {
	f.stopped = true
	*f.order = append(*f.order, "stop:"+f.name)
	return nil
}

func (f *fakeComponent) Health() error {
	if !f.started {
		return errors.New("down")
	}
	return nil
}

func TestLifecycleOrderAndRollback(t *testing.T) {
	var order []string
	a := &fakeComponent{name: "a", order: &order}
	b := &fakeComponent{name: "b", order: &order}
	m := NewLifecycleManager()
	m.Register(a)
	m.Register(b)

	require.NoError(t, m.StartAll(context.Background()))
	require.NoError(t, m.CheckHealth())
	require.NoError(t, m.StopAll())
	assert.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a"}, order)

	order = nil
	c := &fakeComponent{name: "c", order: &order}
	bad := &fakeComponent{name: "bad", startErr: errors.New("boom"), order: &order}
	m = NewLifecycleManager()
	m.Register(c)
	m.Register(bad)
	err := m.StartAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start bad failed")
	assert.True(t, c.stopped)

	err = m.CheckHealth()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad unhealthy")
}

func newSegment(t *testing.T, records int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "DepthM")
	w, err := shm.Create(path, records)
	require.NoError(t, err)
	r := &sim.Runner{Gen: sim.NewGenerator(10000, 5, 2, 7), Writer: w}
	_, err = r.FillAll()
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return path
}

func testConfig(path string) config.AppConfig {
	cfg := config.Default()
	cfg.Segment.Path = path
	cfg.Reader.PollIntervalMs = 5
	cfg.Metrics.Addr = ""
	cfg.Log.Outputs = nil
	return cfg
}

func TestContainerRunsPoller(t *testing.T) {
	path := newSegment(t, 3)
	c := NewWithConfig(testConfig(path), "")
	require.NoError(t, c.Build())
	assert.Equal(t, 3, c.Segment().Records())

	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool {
		latest, ok := c.MarketData().Latest()
		return ok && latest.Timestamp == 2
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.HealthCheck())

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "depth_records_decoded_total")

	require.NoError(t, c.Stop())
	assert.Equal(t, feed.StateStopped, c.Poller().State())

	rec = httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestContainerMissingSegment(t *testing.T) {
	c := NewWithConfig(testConfig(filepath.Join(t.TempDir(), "missing")), "")
	err := c.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attach segment failed")
	assert.NoError(t, c.Stop())
}

func TestContainerDecodedSnapshotsMatchWriter(t *testing.T) {
	path := newSegment(t, 2)
	c := NewWithConfig(testConfig(path), "")
	require.NoError(t, c.Build())
	defer c.Stop()

	buf, err := c.Segment().Copy()
	require.NoError(t, err)
	snaps, err := market.DecodeAll(context.Background(), buf, 0)
	require.NoError(t, err)

	g := sim.NewGenerator(10000, 5, 2, 7)
	var want market.DepthSnapshot
	for i := range snaps {
		g.Next(&want)
		assert.Equal(t, want, snaps[i])
	}
}

func TestPollerComponentHealthyRightAfterStart(t *testing.T) {
	src := newSegment(t, 1)
	seg, err := shm.Open(src)
	require.NoError(t, err)
	defer seg.Close()

	p, err := feed.New(feed.Config{Segment: src, PollInterval: time.Hour}, seg, market.NewService(nil), nil)
	require.NoError(t, err)
	comp := &pollerComponent{poller: p}

	assert.Error(t, comp.Health())
	require.NoError(t, comp.Start(context.Background()))
	// Run 可能尚未把状态切换为 RUNNING
	assert.NoError(t, comp.Health())
	require.Eventually(t, func() bool { return p.State() == feed.StateRunning }, 2*time.Second, time.Millisecond)
	assert.NoError(t, comp.Health())

	require.NoError(t, comp.Stop())
	assert.Error(t, comp.Health())
	assert.Equal(t, feed.StateStopped, p.State())
}
