package tileserver

import (
	"context"

	"github.com/sirosfoundation/go-offline-maps/internal/tileclient"
	"github.com/sirosfoundation/go-offline-maps/pkg/bridge"
)

// Plugin exposes the server through the callback-style plugin API expected
// by tileclient, the same shape the native plugin has on the device
type Plugin struct {
	server *Server
	ctx    context.Context
}

// Plugin returns the callback-style adapter. ctx bounds the calls it makes.
func (s *Server) Plugin(ctx context.Context) *Plugin {
	return &Plugin{server: s, ctx: ctx}
}

var _ tileclient.Plugin = (*Plugin)(nil)

func (p *Plugin) StartServer(onSuccess func(tileclient.ServerInfo), onError func(error)) {
	bridge.Dispatch(func() (tileclient.ServerInfo, error) {
		port, err := p.server.Start(p.ctx)
		return tileclient.ServerInfo{Port: port}, err
	}, onSuccess, onError)
}

func (p *Plugin) AddArchive(name, path string, onSuccess func(tileclient.ArchiveInfo), onError func(error)) {
	bridge.Dispatch(func() (tileclient.ArchiveInfo, error) {
		bounds, err := p.server.AddArchive(p.ctx, name, path)
		if err != nil {
			return tileclient.ArchiveInfo{}, err
		}
		var info tileclient.ArchiveInfo
		if bounds != nil {
			info.Bounds = bounds.Slice()
		}
		return info, nil
	}, onSuccess, onError)
}
