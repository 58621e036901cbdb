package tileclient

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-offline-maps/internal/domain"
)

type fakePlugin struct {
	mu       sync.Mutex
	port     int
	startErr error
	archives map[string][]float64
	rejects  map[string]error
	starts   int
	paths    []string
}

func (p *fakePlugin) StartServer(onSuccess func(ServerInfo), onError func(error)) {
	p.mu.Lock()
	p.starts++
	p.mu.Unlock()
	go func() {
		if p.startErr != nil {
			onError(p.startErr)
			return
		}
		onSuccess(ServerInfo{Port: p.port})
	}()
}

func (p *fakePlugin) AddArchive(name, path string, onSuccess func(ArchiveInfo), onError func(error)) {
	p.mu.Lock()
	p.paths = append(p.paths, path)
	p.mu.Unlock()
	go func() {
		if err, ok := p.rejects[name]; ok {
			onError(err)
			return
		}
		onSuccess(ArchiveInfo{Bounds: p.archives[name]})
	}()
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"file:///storage/emulated/0/tiles/city", "/storage/sdcard0/tiles/city"},
		{"file:///sdcard/tiles/city", "/sdcard/tiles/city"},
		{"/already/absolute", "/already/absolute"},
		// only the first occurrence is rewritten
		{"file:///storage/emulated/0/emulated/city", "/storage/sdcard0/emulated/city"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePath(tt.in, DefaultPathRules))
		})
	}
}

func TestNormalizePath_CustomRules(t *testing.T) {
	rules := []PathRule{{From: "content://", To: "/"}, {From: "", To: "ignored"}}
	assert.Equal(t, "/media/city", NormalizePath("content://media/city", rules))
}

func TestClient_StartOnce(t *testing.T) {
	p := &fakePlugin{port: 8080}
	c := New(p, nil, zap.NewNop())

	h, err := c.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ServerHandle{Port: 8080}, h)

	h, err = c.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8080, h.Port)
	assert.Equal(t, 1, p.starts)
}

func TestClient_StartFailure(t *testing.T) {
	p := &fakePlugin{startErr: errors.New("address in use")}
	c := New(p, nil, zap.NewNop())

	_, err := c.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrServerStartFailed)

	_, err = c.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrServerStartFailed)
	assert.Equal(t, 1, p.starts)
}

func TestClient_StartInvalidPort(t *testing.T) {
	c := New(&fakePlugin{port: 0}, nil, zap.NewNop())

	_, err := c.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrServerStartFailed)
}

func TestClient_AddArchive(t *testing.T) {
	p := &fakePlugin{
		port: 8080,
		archives: map[string][]float64{
			"city": {-3.2, 55.9, -3.1, 56.0},
		},
	}
	c := New(p, nil, zap.NewNop())

	bounds, err := c.AddArchive(context.Background(), "city", "file:///storage/emulated/0/tiles/city")
	require.NoError(t, err)
	assert.Equal(t, &domain.GeoBounds{West: -3.2, South: 55.9, East: -3.1, North: 56.0}, bounds)
	assert.Equal(t, []string{"/storage/sdcard0/tiles/city"}, p.paths)
}

func TestClient_AddArchive_NoBounds(t *testing.T) {
	c := New(&fakePlugin{}, nil, zap.NewNop())

	bounds, err := c.AddArchive(context.Background(), "world", "file:///sdcard/tiles/world")
	require.NoError(t, err)
	assert.Nil(t, bounds)
}

func TestClient_AddArchive_Failures(t *testing.T) {
	p := &fakePlugin{
		archives: map[string][]float64{"broken": {1, 2, 3}},
		rejects:  map[string]error{"region": errors.New("not an mbtiles file")},
	}
	c := New(p, nil, zap.NewNop())

	_, err := c.AddArchive(context.Background(), "region", "file:///sdcard/tiles/region")
	assert.ErrorIs(t, err, domain.ErrArchiveRegistrationFailed)
	assert.Contains(t, err.Error(), "region")

	_, err = c.AddArchive(context.Background(), "broken", "file:///sdcard/tiles/broken")
	assert.ErrorIs(t, err, domain.ErrArchiveRegistrationFailed)
}
