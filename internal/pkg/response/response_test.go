package response

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"Marketplace/internal/api/dto"
	"Marketplace/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return resp
}

func TestError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"business", service.ErrConversation, NotFound, service.ErrConversation.Error()},
		{"wrapped business", fmt.Errorf("mark read: %w", service.UnauthorizedError), Unauthorized, service.UnauthorizedError.Error()},
		{"unknown", fmt.Errorf("dial tcp 10.0.0.1:3306: i/o timeout"), InternalServerError, service.UnExpectedError.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			Error(c, tt.err)

			resp := decode(t, w)
			if resp.Code != tt.wantCode || resp.Message != tt.wantMsg {
				t.Errorf("response = %d %q, want %d %q", resp.Code, resp.Message, tt.wantCode, tt.wantMsg)
			}
		})
	}
}

func TestSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Success(c, map[string]int{"total": 3})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if resp := decode(t, w); resp.Code != Ok || resp.Message != "success" {
		t.Errorf("response = %+v", resp)
	}
}
