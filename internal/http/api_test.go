package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"home-budget/internal/auth"
	"home-budget/internal/repository/sqlite"
	"home-budget/internal/service"
)

type apiFixture struct {
	t      *testing.T
	router *gin.Engine
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	categoryRepo := sqlite.NewCategoryRepository(db)
	expenseRepo := sqlite.NewExpenseRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, categoryRepo.Init(ctx))
	require.NoError(t, expenseRepo.Init(ctx))

	tokens := auth.NewTokenService(auth.TokenConfig{Secret: "test-secret", TTL: time.Hour})
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	handler := NewHandler(
		service.NewUserService(userRepo, 1000),
		service.NewCategoryService(categoryRepo),
		service.NewExpenseService(expenseRepo, categoryRepo),
		service.NewReportService(expenseRepo),
		service.NewExportService(expenseRepo, categoryRepo, nil, "", ""),
		tokens,
		logger,
	)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.RegisterRoutes(router)

	return &apiFixture{t: t, router: router}
}

func (f *apiFixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	f.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) decode(rec *httptest.ResponseRecorder) map[string]any {
	f.t.Helper()
	var out map[string]any
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (f *apiFixture) signup(email string) string {
	f.t.Helper()

	creds := gin.H{"email": email, "password": "password123"}
	rec := f.do(http.MethodPost, "/auth/register", "", creds)
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodPost, "/auth/login", "", creds)
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())
	token, _ := f.decode(rec)["access_token"].(string)
	require.NotEmpty(f.t, token)
	return token
}

func (f *apiFixture) createCategory(token, name string) int64 {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/categories", token, gin.H{"name": name})
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(f.decode(rec)["id"].(float64))
}

func (f *apiFixture) createExpense(token string, categoryID int64, description, amount, date string) int64 {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/expenses", token, gin.H{
		"description": description,
		"amount":      amount,
		"date":        date,
		"category_id": categoryID,
	})
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(f.decode(rec)["id"].(float64))
}

func TestRegisterLoginMe(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodPost, "/auth/register", "", gin.H{"email": "alice@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := f.decode(rec)
	assert.Equal(t, "alice@example.com", body["email"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec = f.do(http.MethodPost, "/auth/login", "", gin.H{"email": "alice@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := f.decode(rec)
	assert.Equal(t, "bearer", login["token_type"])

	token := login["access_token"].(string)
	rec = f.do(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice@example.com", f.decode(rec)["email"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAPIFixture(t)
	f.signup("alice@example.com")

	rec := f.do(http.MethodPost, "/auth/register", "", gin.H{"email": "alice@example.com", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnauthorizedResponsesAreUniform(t *testing.T) {
	f := newAPIFixture(t)
	f.signup("alice@example.com")

	badLogin := f.do(http.MethodPost, "/auth/login", "", gin.H{"email": "alice@example.com", "password": "wrong"})
	noToken := f.do(http.MethodGet, "/auth/me", "", nil)
	badToken := f.do(http.MethodGet, "/auth/me", "garbage", nil)

	assert.Equal(t, http.StatusUnauthorized, badLogin.Code)
	assert.Equal(t, http.StatusUnauthorized, noToken.Code)
	assert.Equal(t, http.StatusUnauthorized, badToken.Code)

	// One message for every sub-case, no oracle for attackers.
	assert.JSONEq(t, badLogin.Body.String(), noToken.Body.String())
	assert.JSONEq(t, badLogin.Body.String(), badToken.Body.String())
}

func TestTokenForUnknownSubjectIsRejected(t *testing.T) {
	f := newAPIFixture(t)
	f.signup("alice@example.com")

	// Cryptographically valid token whose subject has no account.
	strayTokens := auth.NewTokenService(auth.TokenConfig{Secret: "test-secret", TTL: time.Hour})
	stray, err := strayTokens.Issue("ghost@example.com")
	require.NoError(t, err)

	rec := f.do(http.MethodGet, "/auth/me", stray, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCategoryCRUD(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signup("alice@example.com")

	foodID := f.createCategory(token, "Food")
	f.createCategory(token, "Travel")

	dup := f.do(http.MethodPost, "/categories", token, gin.H{"name": "Food"})
	assert.Equal(t, http.StatusBadRequest, dup.Code)

	list := f.do(http.MethodGet, "/categories", token, nil)
	require.Equal(t, http.StatusOK, list.Code)
	var categories []map[string]any
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &categories))
	require.Len(t, categories, 2)
	assert.Equal(t, "Food", categories[0]["name"])
	assert.Equal(t, "Travel", categories[1]["name"])

	update := f.do(http.MethodPut, fmt.Sprintf("/categories/%d", foodID), token, gin.H{"name": "Groceries"})
	require.Equal(t, http.StatusOK, update.Code)
	assert.Equal(t, "Groceries", f.decode(update)["name"])

	missing := f.do(http.MethodPut, "/categories/999", token, gin.H{"name": "X"})
	assert.Equal(t, http.StatusNotFound, missing.Code)

	del := f.do(http.MethodDelete, fmt.Sprintf("/categories/%d", foodID), token, nil)
	assert.Equal(t, http.StatusNoContent, del.Code)

	delAgain := f.do(http.MethodDelete, fmt.Sprintf("/categories/%d", foodID), token, nil)
	assert.Equal(t, http.StatusNotFound, delAgain.Code)
}

func TestExpenseCRUDAndOwnership(t *testing.T) {
	f := newAPIFixture(t)
	aliceToken := f.signup("alice@example.com")
	bobToken := f.signup("bob@example.com")

	aliceFood := f.createCategory(aliceToken, "Food")
	bobFood := f.createCategory(bobToken, "Food")

	expenseID := f.createExpense(aliceToken, aliceFood, "groceries", "42.50", "2024-03-01")

	got := f.do(http.MethodGet, fmt.Sprintf("/expenses/%d", expenseID), aliceToken, nil)
	require.Equal(t, http.StatusOK, got.Code)
	assert.Contains(t, got.Body.String(), `"amount":42.50`)

	// Ownership mismatch is indistinguishable from absence.
	foreign := f.do(http.MethodGet, fmt.Sprintf("/expenses/%d", expenseID), bobToken, nil)
	assert.Equal(t, http.StatusNotFound, foreign.Code)

	// Bob's category id exists numerically but belongs to another user.
	crossed := f.do(http.MethodPost, "/expenses", aliceToken, gin.H{
		"description": "sneaky",
		"amount":      "10.00",
		"date":        "2024-03-01",
		"category_id": bobFood,
	})
	assert.Equal(t, http.StatusBadRequest, crossed.Code)

	update := f.do(http.MethodPut, fmt.Sprintf("/expenses/%d", expenseID), aliceToken, gin.H{
		"description": "weekly groceries",
		"amount":      "45.00",
		"date":        "2024-03-02",
		"category_id": aliceFood,
	})
	require.Equal(t, http.StatusOK, update.Code)
	assert.Equal(t, "weekly groceries", f.decode(update)["description"])

	del := f.do(http.MethodDelete, fmt.Sprintf("/expenses/%d", expenseID), aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, del.Code)

	gone := f.do(http.MethodGet, fmt.Sprintf("/expenses/%d", expenseID), aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, gone.Code)
}

func TestExpenseListFilters(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signup("alice@example.com")
	food := f.createCategory(token, "Food")
	travel := f.createCategory(token, "Travel")

	f.createExpense(token, food, "Groceries", "42.00", "2024-03-01")
	f.createExpense(token, travel, "Train ticket", "25.00", "2024-03-05")
	f.createExpense(token, food, "Dinner out", "61.00", "2024-03-05")

	all := f.do(http.MethodGet, "/expenses", token, nil)
	require.Equal(t, http.StatusOK, all.Code)
	var expenses []map[string]any
	require.NoError(t, json.Unmarshal(all.Body.Bytes(), &expenses))
	require.Len(t, expenses, 3)
	assert.Equal(t, "Dinner out", expenses[0]["description"])

	filtered := f.do(http.MethodGet,
		fmt.Sprintf("/expenses?categoryId=%d&amount_min=30&date_from=2024-03-01&q=din", food),
		token, nil)
	require.Equal(t, http.StatusOK, filtered.Code)
	require.NoError(t, json.Unmarshal(filtered.Body.Bytes(), &expenses))
	require.Len(t, expenses, 1)
	assert.Equal(t, "Dinner out", expenses[0]["description"])

	bad := f.do(http.MethodGet, "/expenses?amount_min=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestBalanceReport(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signup("alice@example.com")
	food := f.createCategory(token, "Food")
	f.createExpense(token, food, "groceries", "200.00", "2024-03-01")
	f.createExpense(token, food, "coffee", "50.50", "2024-03-02")

	rec := f.do(http.MethodGet, "/reports/balance", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"starting_balance":1000.00,"total_expenses":250.50,"balance":749.50}`, rec.Body.String())
}

func TestSummaryReport(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signup("alice@example.com")
	food := f.createCategory(token, "Food")
	travel := f.createCategory(token, "Travel")

	f.createExpense(token, food, "groceries", "100.00", "2024-02-10")
	f.createExpense(token, travel, "train", "25.00", "2024-02-29")
	f.createExpense(token, food, "outside", "999.00", "2024-03-01")

	rec := f.do(http.MethodGet, "/reports/summary?period=month&year=2024&month=2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := f.decode(rec)
	assert.Equal(t, "month", body["period"])
	assert.Equal(t, "2024-02-01", body["start"])
	assert.Equal(t, "2024-02-29", body["end"])
	assert.Equal(t, 125.0, body["total_expenses"])

	totals := body["category_totals"].([]any)
	require.Len(t, totals, 2)
	first := totals[0].(map[string]any)
	assert.Equal(t, "Food", first["name"])
}

func TestSummaryInvalidPeriod(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signup("alice@example.com")

	missingMonth := f.do(http.MethodGet, "/reports/summary?period=month", token, nil)
	assert.Equal(t, http.StatusBadRequest, missingMonth.Code)

	unknownKind := f.do(http.MethodGet, "/reports/summary?period=week", token, nil)
	assert.Equal(t, http.StatusBadRequest, unknownKind.Code)

	badQuarter := f.do(http.MethodGet, "/reports/summary?period=quarter&quarter=5", token, nil)
	assert.Equal(t, http.StatusBadRequest, badQuarter.Code)
}

func TestSummaryEmptyWindow(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signup("alice@example.com")

	rec := f.do(http.MethodGet, "/reports/summary?period=year&year=2019", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := f.decode(rec)
	assert.Equal(t, 0.0, body["total_expenses"])
	assert.Empty(t, body["category_totals"])
}

func TestExportNotConfigured(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signup("alice@example.com")

	rec := f.do(http.MethodPost, "/expenses/export", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/expenses/exports", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCategoryDeleteCascadesThroughAPI(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signup("alice@example.com")
	food := f.createCategory(token, "Food")
	travel := f.createCategory(token, "Travel")

	f.createExpense(token, food, "groceries", "42.00", "2024-03-01")
	f.createExpense(token, travel, "train", "25.00", "2024-03-02")

	del := f.do(http.MethodDelete, fmt.Sprintf("/categories/%d", food), token, nil)
	require.Equal(t, http.StatusNoContent, del.Code)

	list := f.do(http.MethodGet, "/expenses", token, nil)
	require.Equal(t, http.StatusOK, list.Code)
	var expenses []map[string]any
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &expenses))
	require.Len(t, expenses, 1)
	assert.Equal(t, "train", expenses[0]["description"])
}
