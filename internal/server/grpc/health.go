package grpc

import (
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Health check component names. The empty name is the server as a whole.
const (
	ComponentServer   = ""
	ComponentStore    = "store"
	ComponentDispatch = "dispatch"
)

// Components lists every component the admin channel reports on.
var Components = []string{ComponentServer, ComponentStore, ComponentDispatch}

// SetServing reports component as serving or not serving.
func (s *AdminServer) SetServing(component string, serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(component, st)
}
