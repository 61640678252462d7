package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfanzaky/proofanchor/internal/domain"
	authpkg "github.com/alfanzaky/proofanchor/pkg/auth"
	"github.com/alfanzaky/proofanchor/pkg/xresponse"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAnchorUsecase struct {
	records   map[string]*domain.VerificationRecord
	enqueued  []string
	submitErr error
}

func (f *fakeAnchorUsecase) Submit(_ context.Context, savedParlayID, dataHash string) (*domain.VerificationRecord, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	if !domain.ValidDataHash(dataHash) {
		return nil, domain.ErrInvalidDataHash
	}
	record := &domain.VerificationRecord{
		ID:        "rec-1",
		DataHash:  dataHash,
		Status:    domain.VerificationStatusPending,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if savedParlayID != "" {
		record.SavedParlayID = &savedParlayID
	}
	f.records[record.ID] = record
	return record, nil
}

func (f *fakeAnchorUsecase) Get(_ context.Context, recordID string) (*domain.VerificationRecord, error) {
	record, ok := f.records[recordID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return record, nil
}

func (f *fakeAnchorUsecase) Enqueue(_ context.Context, recordID, savedParlayID string) (*domain.VerificationJob, error) {
	record, ok := f.records[recordID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	if record.IsTerminal() {
		return nil, fmt.Errorf("%w: record %s is %s", domain.ErrRecordTerminal, recordID, record.Status)
	}
	if savedParlayID == "" && record.SavedParlayID != nil {
		savedParlayID = *record.SavedParlayID
	}
	f.enqueued = append(f.enqueued, recordID+"|"+savedParlayID)
	return &domain.VerificationJob{
		JobName:              domain.JobNameVerifySavedParlay,
		JobID:                "job-1",
		VerificationRecordID: recordID,
		SavedParlayID:        savedParlayID,
	}, nil
}

func (f *fakeAnchorUsecase) Stats(context.Context) (*domain.AnchorStats, error) {
	return &domain.AnchorStats{
		Queue:   &domain.QueueStats{Queued: 2},
		Records: map[string]int64{"pending": 2},
	}, nil
}

// stubAuth maps literal tokens to claims.
type stubAuth map[string]*domain.AuthClaims

func (s stubAuth) GenerateServiceToken(string, []string, time.Duration) (string, error) {
	return "", errors.New("not supported")
}

func (s stubAuth) ValidateToken(token string) (*domain.AuthClaims, error) {
	if token == "expired" {
		return nil, authpkg.ErrExpiredToken
	}
	claims, ok := s[token]
	if !ok {
		return nil, authpkg.ErrInvalidToken
	}
	return claims, nil
}

func newTestRouter(uc *fakeAnchorUsecase) *gin.Engine {
	auth := stubAuth{
		"writer": {Subject: "web", Scopes: []string{domain.ScopeAnchorsWrite}},
		"reader": {Subject: "dash", Scopes: []string{domain.ScopeAnchorsRead}},
	}
	router := gin.New()
	router.Use(RecoveryMiddleware())
	SetupRoutes(router, NewAnchorHandler(uc), auth)
	return router
}

func do(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

var validHash = strings.Repeat("ab", 32)

func TestSubmit(t *testing.T) {
	uc := &fakeAnchorUsecase{records: map[string]*domain.VerificationRecord{}}
	router := newTestRouter(uc)

	rec := do(router, http.MethodPost, "/api/v1/anchors", "writer",
		`{"data_hash":"`+validHash+`","saved_parlay_id":"p-1"}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "rec-1", data["id"])
	assert.Equal(t, "p-1", data["saved_parlay_id"])
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "2026-01-01T00:00:00Z", data["created_at"])
}

func TestSubmit_Validation(t *testing.T) {
	router := newTestRouter(&fakeAnchorUsecase{records: map[string]*domain.VerificationRecord{}})

	rec := do(router, http.MethodPost, "/api/v1/anchors", "writer", `{"data_hash":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_DATA_HASH", decode(t, rec)["error_code"])

	rec = do(router, http.MethodPost, "/api/v1/anchors", "writer", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", decode(t, rec)["error_code"])
}

func TestSubmit_StoreFailure(t *testing.T) {
	uc := &fakeAnchorUsecase{records: map[string]*domain.VerificationRecord{}, submitErr: errors.New("db down")}
	router := newTestRouter(uc)

	rec := do(router, http.MethodPost, "/api/v1/anchors", "writer", `{"data_hash":"`+validHash+`"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuthAndScopes(t *testing.T) {
	router := newTestRouter(&fakeAnchorUsecase{records: map[string]*domain.VerificationRecord{}})
	body := `{"data_hash":"` + validHash + `"}`

	tests := []struct {
		name     string
		token    string
		wantCode int
		wantErr  string
	}{
		{name: "no token", token: "", wantCode: http.StatusUnauthorized, wantErr: "UNAUTHORIZED"},
		{name: "unknown token", token: "forged", wantCode: http.StatusUnauthorized, wantErr: "UNAUTHORIZED"},
		{name: "expired token", token: "expired", wantCode: http.StatusUnauthorized, wantErr: "TOKEN_EXPIRED"},
		{name: "read scope only", token: "reader", wantCode: http.StatusForbidden, wantErr: "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(router, http.MethodPost, "/api/v1/anchors", tt.token, body)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, decode(t, rec)["error_code"])
		})
	}
}

func TestGet(t *testing.T) {
	digest := "digest-1"
	uc := &fakeAnchorUsecase{records: map[string]*domain.VerificationRecord{
		"rec-7": {ID: "rec-7", DataHash: validHash, Status: domain.VerificationStatusConfirmed, TxDigest: &digest},
	}}
	router := newTestRouter(uc)

	rec := do(router, http.MethodGet, "/api/v1/anchors/rec-7", "reader", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "confirmed", data["status"])
	assert.Equal(t, "digest-1", data["tx_digest"])

	rec = do(router, http.MethodGet, "/api/v1/anchors/missing", "reader", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnqueue(t *testing.T) {
	parlay := "p-3"
	uc := &fakeAnchorUsecase{records: map[string]*domain.VerificationRecord{
		"stuck":     {ID: "stuck", Status: domain.VerificationStatusPending, SavedParlayID: &parlay},
		"failed":    {ID: "failed", Status: domain.VerificationStatusFailed},
		"confirmed": {ID: "confirmed", Status: domain.VerificationStatusConfirmed},
	}}
	router := newTestRouter(uc)

	rec := do(router, http.MethodPost, "/api/v1/anchors/stuck/enqueue", "writer", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"stuck|p-3"}, uc.enqueued)

	rec = do(router, http.MethodPost, "/api/v1/anchors/stuck/enqueue", "writer", `{"saved_parlay_id":"p-4"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "stuck|p-4", uc.enqueued[1])

	for _, id := range []string{"failed", "confirmed"} {
		rec = do(router, http.MethodPost, "/api/v1/anchors/"+id+"/enqueue", "writer", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, xresponse.ErrCodeRecordTerminal, decode(t, rec)["error_code"])
	}

	rec = do(router, http.MethodPost, "/api/v1/anchors/missing/enqueue", "writer", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, uc.enqueued, 2)
}

func TestStats(t *testing.T) {
	router := newTestRouter(&fakeAnchorUsecase{records: map[string]*domain.VerificationRecord{}})

	rec := do(router, http.MethodGet, "/api/v1/stats", "reader", "")

	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(2), data["queue"].(map[string]any)["queued"])
}
