package integrationtests

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	auction "auction-house/internal/auctionService"
	"auction-house/internal/auth"
	"auction-house/internal/config"
	"auction-house/internal/imagestore"
	"auction-house/internal/repository"
	"auction-house/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "integration-test-secret"

// SetupTestRouter initializes the router with the in-memory store for
// integration testing.
func SetupTestRouter(t *testing.T) (*gin.Engine, *auth.Verifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		MetricsPath: "/metrics",
		Listings: config.ListingConfig{
			LatestCount:     6,
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
	}

	store := repository.NewMemoryStore()
	service := auction.NewAuctionService(store, cfg.Listings)
	verifier := auth.NewVerifier(testJWTSecret)

	images, err := imagestore.NewDiskStore(config.UploadConfig{Dir: t.TempDir(), MaxSizeBytes: 1 << 20})
	require.NoError(t, err)

	router := server.SetupRouter(service, images, verifier, nil, cfg)
	return router, verifier
}

// BearerToken signs a token for the given identity.
func BearerToken(t *testing.T, verifier *auth.Verifier, identity string) string {
	t.Helper()
	token, err := verifier.Issue(identity)
	require.NoError(t, err)
	return "Bearer " + token
}

// ExecuteJSON executes a JSON request and parses the response envelope.
func ExecuteJSON(t *testing.T, router *gin.Engine, method, url, authorization string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return parsed, w
}

// CreateListing posts a multipart listing form and returns the new id.
func CreateListing(t *testing.T, router *gin.Engine, authorization, title, startPrice string) string {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", title))
	require.NoError(t, mw.WriteField("description", title+" description"))
	require.NoError(t, mw.WriteField("start_price", startPrice))
	require.NoError(t, mw.WriteField("end_time", time.Now().Add(24*time.Hour).UTC().Format(time.RFC3339)))
	part, err := mw.CreateFormFile("image", "item.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/listings", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", authorization)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, "create listing failed: %s", w.Body.String())

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	data := parsed["data"].(map[string]any)
	return data["listing_id"].(string)
}
