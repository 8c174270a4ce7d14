// Package grpc exposes the toy service health over the standard gRPC health protocol.
package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the toy service.
const ServiceName = "toymarket.v1.ToyService"

// HealthServer reports whether the toy service can reach its store.
// It starts NOT_SERVING until the first successful store check.
type HealthServer struct {
	hs *health.Server
}

// NewHealthServer creates a HealthServer in the NOT_SERVING state.
func NewHealthServer() *HealthServer {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{hs: hs}
}

// Register adds the health service to s.
func (h *HealthServer) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.hs)
}

// SetServing updates the overall and the toy service status.
func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.hs.SetServingStatus("", status)
	h.hs.SetServingStatus(ServiceName, status)
}

// Shutdown sets every status to NOT_SERVING and ignores later updates.
func (h *HealthServer) Shutdown() {
	h.hs.Shutdown()
}
