package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// asUser authenticates every request of the router as the given user
func asUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTClaimsKey, &auth.Claims{UserID: userID.String(), Username: "tester"})
		c.Next()
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func serve(r *gin.Engine, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestBaseHandler_HandleError(t *testing.T) {
	h := &BaseHandler{}
	r := gin.New()
	r.GET("/missing", func(c *gin.Context) {
		h.HandleError(c, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found"))
	})
	r.GET("/stock", func(c *gin.Context) {
		h.HandleError(c, shared.NewDomainError("INSUFFICIENT_STOCK", "Only 2 left"))
	})
	r.GET("/boom", func(c *gin.Context) {
		h.HandleError(c, errors.New("connection reset"))
	})

	rec := serve(r, http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "PRODUCT_NOT_FOUND", resp.Error.Code)

	rec = serve(r, http.MethodGet, "/stock", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Only 2 left", decode(t, rec).Error.Message)

	rec = serve(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp = decode(t, rec)
	assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "connection reset")
}

func TestBaseHandler_PageRendersEmptyList(t *testing.T) {
	h := &BaseHandler{}
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		Page(h, c, shared.Paginated[string]{Total: 0, Page: 1, PageSize: 20})
	})

	rec := serve(r, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
	resp := decode(t, rec)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 20, resp.Meta.PageSize)
}

func TestBaseHandler_ParamAndAuthHelpers(t *testing.T) {
	h := &BaseHandler{}
	userID := uuid.New()
	r := gin.New()
	r.GET("/items/:id", func(c *gin.Context) {
		if id, ok := h.ParamUUID(c, "id"); ok {
			h.Success(c, id)
		}
	})
	r.GET("/me", func(c *gin.Context) {
		if id, ok := h.CurrentUserID(c); ok {
			h.Success(c, id)
		}
	})
	authed := r.Group("/authed", asUser(userID))
	authed.GET("/me", func(c *gin.Context) {
		if id, ok := h.CurrentUserID(c); ok {
			h.Success(c, id)
		}
	})

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/items/nope", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/items/"+uuid.NewString(), "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "").Code)

	rec := serve(r, http.MethodGet, "/authed/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.String(), decode(t, rec).Data)
}

func TestBaseHandler_BindJSONReportsFields(t *testing.T) {
	type payload struct {
		Email    string `json:"email" binding:"required,email"`
		Quantity int    `json:"quantity" binding:"required,min=1"`
	}
	h := &BaseHandler{}
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var p payload
		if h.BindJSON(c, &p) {
			h.Success(c, p)
		}
	})

	rec := serve(r, http.MethodPost, "/", `{"email":"nope","quantity":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	fields := make([]string, 0, len(resp.Error.Details))
	for _, d := range resp.Error.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"email", "quantity"}, fields)

	rec = serve(r, http.MethodPost, "/", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping() error { return p.err }

func TestSystemHandler_Health(t *testing.T) {
	r := gin.New()
	r.GET("/up", NewSystemHandler("Storefront API", "1.0.0", stubPinger{}).Health)
	r.GET("/down", NewSystemHandler("Storefront API", "1.0.0", stubPinger{err: errors.New("refused")}).Health)
	r.GET("/info", NewSystemHandler("Storefront API", "1.0.0", nil).GetSystemInfo)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/up", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodGet, "/down", "").Code)

	rec := serve(r, http.MethodGet, "/info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Storefront API"`)
}
