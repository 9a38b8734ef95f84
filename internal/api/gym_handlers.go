package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/raidboard/raidboard-server/internal/gym"
)

func (s *Server) registerGymRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchGyms",
		Method:      http.MethodGet,
		Path:        "/api/v1/gyms",
		Summary:     "Search gyms",
		Description: "Fuzzy searches gym names; typos and prefixes match",
		Tags:        []string{"Gyms"},
	}, s.handleSearchGyms)
}

// SearchGymsInput contains parameters for searching gyms.
type SearchGymsInput struct {
	Query string `query:"q" maxLength:"200" doc:"Free-text gym name"`
	Limit int    `query:"limit" minimum:"0" maximum:"50" doc:"Maximum hits (default 10)"`
}

// SearchGymsResponse lists gym hits, best first.
type SearchGymsResponse struct {
	Hits []gym.Hit `json:"hits" doc:"Matching gyms, best first"`
}

// SearchGymsOutput wraps the gym search response for Huma.
type SearchGymsOutput struct {
	Body SearchGymsResponse
}

func (s *Server) handleSearchGyms(ctx context.Context, input *SearchGymsInput) (*SearchGymsOutput, error) {
	if s.services.Gyms == nil {
		return nil, huma.Error503ServiceUnavailable("gym directory not configured")
	}

	hits, err := s.services.Gyms.Search(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []gym.Hit{}
	}
	return &SearchGymsOutput{Body: SearchGymsResponse{Hits: hits}}, nil
}
