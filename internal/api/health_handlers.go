package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
	Count   int    `json:"count" doc:"Items held by the component"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"raids":  s.checkRaids(),
		"gyms":   s.checkGyms(),
		"events": s.checkEvents(),
	}

	overall := "healthy"
	for _, c := range components {
		switch c.Status {
		case "unhealthy":
			overall = "unhealthy"
		case "degraded":
			if overall == "healthy" {
				overall = "degraded"
			}
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

func (s *Server) checkRaids() ComponentHealth {
	if s.services == nil || s.services.Raids == nil {
		return ComponentHealth{Status: "unhealthy", Message: "raid registry not configured"}
	}
	return ComponentHealth{Status: "healthy", Count: s.services.Raids.Len()}
}

func (s *Server) checkGyms() ComponentHealth {
	if s.services == nil || s.services.Gyms == nil {
		return ComponentHealth{Status: "degraded", Message: "gym directory not configured"}
	}
	n := s.services.Gyms.Len()
	if n == 0 {
		return ComponentHealth{Status: "degraded", Message: "gym directory is empty"}
	}
	return ComponentHealth{Status: "healthy", Count: n}
}

func (s *Server) checkEvents() ComponentHealth {
	if s.services == nil || s.services.Events == nil {
		return ComponentHealth{Status: "degraded", Message: "event stream not configured"}
	}
	return ComponentHealth{Status: "healthy", Count: s.services.Events.ClientCount()}
}
