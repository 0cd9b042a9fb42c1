package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", DefaultLimit, 0},
		{"explicit", "limit=50&offset=10", 50, 10},
		{"clamped to max", "limit=5000", MaxLimit, 0},
		{"negative ignored", "limit=-3&offset=-7", DefaultLimit, 0},
		{"garbage ignored", "limit=abc&offset=xyz", DefaultLimit, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := paramsFor(t, tt.query)
			if p.Limit != tt.wantLimit || p.Offset != tt.wantOffset {
				t.Errorf("got limit=%d offset=%d, want limit=%d offset=%d",
					p.Limit, p.Offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestResponseHasMore(t *testing.T) {
	resp := NewResponse(nil, 45, 20, 20)
	if !resp.HasMore {
		t.Error("expected has_more at offset 20 of 45")
	}

	resp = NewResponse(nil, 45, 20, 40)
	if resp.HasMore {
		t.Error("expected no more results at offset 40 of 45")
	}
}

func TestHasNext(t *testing.T) {
	p := Params{Limit: 20, Offset: 0}
	if !p.HasNext(30) {
		t.Error("expected next page for 30 results")
	}
	if p.HasNext(15) {
		t.Error("did not expect next page for 15 results")
	}
	if got := p.NextOffset(); got != 20 {
		t.Errorf("expected next offset 20, got %d", got)
	}
}
