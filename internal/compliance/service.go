// Package compliance screens a payout's compliance payload before
// dispatch. The sandbox simulator approves everything; this is the seam
// where a real screening integration would plug in (§4.2).
package compliance

import "context"

type Poster interface {
	Post(ctx context.Context, path string, payload any) (map[string]any, int, error)
}

type Service struct {
	http Poster
}

func New(http Poster) *Service {
	return &Service{http: http}
}

func (s *Service) Screen(ctx context.Context, payload map[string]any) (map[string]any, error) {
	data, _, err := s.http.Post(ctx, "/visapayouts/v3/compliance/screen", payload)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["approved"]; !ok {
		data["approved"] = true
	}
	return data, nil
}
