package server

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/todoapi/component"
)

// RouteFunc mounts routes on the engine. It runs inside Start, after every
// component registered earlier has started.
type RouteFunc func(engine *gin.Engine) error

// Component runs a Server in the registry.
type Component struct {
	server *Server
	routes []RouteFunc
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent mounts routes on s when started.
func NewComponent(s *Server, routes ...RouteFunc) *Component {
	return &Component{server: s, routes: routes}
}

func (c *Component) Name() string { return "http-server" }

// Start mounts the routes, then binds. Nothing listens when a mount fails.
func (c *Component) Start(ctx context.Context) error {
	for _, mount := range c.routes {
		if err := mount(c.server.engine); err != nil {
			return fmt.Errorf("mount routes: %w", err)
		}
	}
	return c.server.Start(ctx)
}

func (c *Component) Stop(ctx context.Context) error { return c.server.Stop(ctx) }

func (c *Component) Health(context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: c.server.Addr()}
	if !c.server.Listening() {
		h.Status, h.Message = component.StatusUnhealthy, "not listening"
	}
	return h
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: fmt.Sprintf("%s body_limit=%s", c.server.cfg.Addr(), c.server.cfg.MaxBodySize),
	}
}
