package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/spendly/internal/auth"
	"github.com/MrJamesThe3rd/spendly/internal/budget"
	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/export"
	"github.com/MrJamesThe3rd/spendly/internal/feed"
	spendlyHttp "github.com/MrJamesThe3rd/spendly/internal/http"
	authHandler "github.com/MrJamesThe3rd/spendly/internal/http/auth"
	budgetHandler "github.com/MrJamesThe3rd/spendly/internal/http/budget"
	expenseHandler "github.com/MrJamesThe3rd/spendly/internal/http/expense"
	exportHandler "github.com/MrJamesThe3rd/spendly/internal/http/export"
	feedHandler "github.com/MrJamesThe3rd/spendly/internal/http/feed"
	"github.com/MrJamesThe3rd/spendly/internal/http/importcsv"
	matchingHandler "github.com/MrJamesThe3rd/spendly/internal/http/matching"
	"github.com/MrJamesThe3rd/spendly/internal/http/summary"
	"github.com/MrJamesThe3rd/spendly/internal/importer"
	"github.com/MrJamesThe3rd/spendly/internal/matching"
	"github.com/MrJamesThe3rd/spendly/internal/tracker"
)

const secret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	router   http.Handler
	expenses *expense.MockRepository
	budgets  *budget.MockRepository
	users    *auth.MockRepository
	mappings *matching.MockRepository
	token    string
	userID   uuid.UUID
}

func newFixture(t *testing.T, limiter *spendlyHttp.RateLimiter) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := &fixture{
		expenses: expense.NewMockRepository(ctrl),
		budgets:  budget.NewMockRepository(ctrl),
		users:    auth.NewMockRepository(ctrl),
		mappings: matching.NewMockRepository(ctrl),
		userID:   uuid.New(),
	}

	tokens := auth.NewTokens(secret, time.Hour)

	token, err := tokens.Issue(f.userID)
	require.NoError(t, err)

	f.token = token

	hub := feed.NewHub()

	var (
		authSvc     = auth.NewService(f.users, tokens).WithHashCost(bcrypt.MinCost)
		expenseSvc  = expense.NewService(f.expenses, hub)
		budgetSvc   = budget.NewService(f.budgets, hub)
		trackerSvc  = tracker.NewService(expenseSvc, budgetSvc)
		matchingSvc = matching.NewService(f.mappings)
		importSvc   = importer.NewService(matchingSvc)
		exportSvc   = export.NewService(expenseSvc, trackerSvc)
	)

	if limiter == nil {
		limiter = spendlyHttp.NewRateLimiter(600, 100)
	}

	f.router = spendlyHttp.New(spendlyHttp.Handlers{
		Auth:      authHandler.NewHandler(authSvc),
		Expenses:  expenseHandler.NewHandler(expenseSvc, matchingSvc),
		Budgets:   budgetHandler.NewHandler(budgetSvc),
		Summaries: summary.NewHandler(trackerSvc),
		Import:    importcsv.NewHandler(importSvc, expenseSvc),
		Matching:  matchingHandler.NewHandler(matchingSvc),
		Export:    exportHandler.NewHandler(exportSvc),
		Feed:      feedHandler.NewHandler(hub, authSvc, []string{"*"}),
	}, authSvc, limiter, spendlyHttp.Options{AllowedOrigins: []string{"*"}})

	return f
}

func (f *fixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	return rec
}

func TestRouter_Authentication(t *testing.T) {
	type testCase struct {
		name       string
		token      func(f *fixture) string
		wantStatus int
	}

	tests := []testCase{
		{
			name:       "MissingToken",
			token:      func(*fixture) string { return "" },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "GarbageToken",
			token:      func(*fixture) string { return "not-a-jwt" },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "TokenFromOtherSecret",
			token: func(*fixture) string {
				tok, _ := auth.NewTokens("ffffffffffffffffffffffffffffffff", time.Hour).Issue(uuid.New())
				return tok
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "ValidToken",
			token:      func(f *fixture) string { return f.token },
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)

			if tt.wantStatus == http.StatusOK {
				f.expenses.EXPECT().ListExpenses(gomock.Any(), f.userID, expense.ListFilter{}).Return(nil, nil)
			}

			rec := f.do(http.MethodGet, "/api/v1/expenses", "", tt.token(f))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRouter_Healthz(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ListExpenses(t *testing.T) {
	f := newFixture(t, nil)

	food := expense.CategoryFood
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	f.expenses.EXPECT().
		ListExpenses(gomock.Any(), f.userID, expense.ListFilter{Category: &food, StartDate: &start, Limit: 5}).
		Return([]*expense.Expense{{
			ID:       uuid.New(),
			UserID:   f.userID,
			Amount:   5000,
			Category: food,
			Label:    "Groceries",
			Date:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		}}, nil)

	rec := f.do(http.MethodGet, "/api/v1/expenses?category=food&start_date=2024-03-01&limit=5", "", f.token)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "50.00", got[0]["amount"])
	assert.Equal(t, "Food", got[0]["category"])
	assert.Equal(t, "2024-03-05", got[0]["date"])
}

func TestRouter_CreateExpense(t *testing.T) {
	type testCase struct {
		name       string
		body       string
		setupMock  func(f *fixture)
		wantStatus int
	}

	tests := []testCase{
		{
			name: "Success",
			body: `{"amount":"12.50","category":"transport","label":"Bus","date":"2024-03-05"}`,
			setupMock: func(f *fixture) {
				f.expenses.EXPECT().CreateExpense(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "NonNumericAmount",
			body:       `{"amount":"abc","category":"Food","label":"Bus","date":"2024-03-05"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "ZeroAmount",
			body:       `{"amount":"0","category":"Food","label":"Bus","date":"2024-03-05"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "UnknownCategory",
			body:       `{"amount":"1","category":"Yachts","label":"Bus","date":"2024-03-05"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "BadDate",
			body:       `{"amount":"1","category":"Food","label":"Bus","date":"05/03/2024"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "MissingLabel",
			body:       `{"amount":"1","category":"Food","label":" ","date":"2024-03-05"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			if tt.setupMock != nil {
				tt.setupMock(f)
			}

			rec := f.do(http.MethodPost, "/api/v1/expenses", tt.body, f.token)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_GetExpense(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/v1/expenses/not-a-uuid", "", f.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	id := uuid.New()
	f.expenses.EXPECT().GetExpense(gomock.Any(), f.userID, id).Return(nil, expense.ErrNotFound)

	rec = f.do(http.MethodGet, "/api/v1/expenses/"+id.String(), "", f.token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_UpdateExpenseLearnsCategory(t *testing.T) {
	f := newFixture(t, nil)

	id := uuid.New()
	existing := &expense.Expense{
		ID:       id,
		UserID:   f.userID,
		Amount:   999,
		Category: expense.CategoryOther,
		Label:    "UBER TRIP",
		Date:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}

	f.expenses.EXPECT().GetExpense(gomock.Any(), f.userID, id).Return(existing, nil)
	f.expenses.EXPECT().UpdateExpense(gomock.Any(), existing).Return(nil)
	f.mappings.EXPECT().CreateMapping(gomock.Any(), f.userID, "UBER TRIP", expense.CategoryTransport).Return(nil)

	rec := f.do(http.MethodPatch, "/api/v1/expenses/"+id.String(), `{"category":"Transport"}`, f.token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, expense.CategoryTransport, existing.Category)
}

func TestRouter_SetBudget(t *testing.T) {
	type testCase struct {
		name       string
		body       string
		setupMock  func(f *fixture)
		wantStatus int
	}

	tests := []testCase{
		{
			name: "Success",
			body: `{"amount":"100","period":"2024-03"}`,
			setupMock: func(f *fixture) {
				f.budgets.EXPECT().
					CreateBudget(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, b *budget.Budget) error {
						assert.Equal(t, int64(10000), b.Amount)
						assert.Equal(t, budget.Period{Year: 2024, Month: time.March}, b.Period)
						return nil
					})
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "InvalidPeriod",
			body:       `{"amount":"100","period":"2024-13"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "MissingPeriod",
			body:       `{"amount":"100"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "NegativeAmount",
			body:       `{"amount":"-5","period":"2024-03"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			if tt.setupMock != nil {
				tt.setupMock(f)
			}

			rec := f.do(http.MethodPost, "/api/v1/budgets", tt.body, f.token)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_EffectiveBudgetNotFound(t *testing.T) {
	f := newFixture(t, nil)

	f.budgets.EXPECT().
		ListBudgetsForPeriod(gomock.Any(), f.userID, budget.Period{Year: 2024, Month: time.March}).
		Return(nil, nil)

	rec := f.do(http.MethodGet, "/api/v1/budgets/2024-03", "", f.token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_CurrentSummary(t *testing.T) {
	f := newFixture(t, nil)

	now := time.Now()

	f.expenses.EXPECT().ListExpenses(gomock.Any(), f.userID, expense.ListFilter{}).Return([]*expense.Expense{
		{ID: uuid.New(), Amount: 5000, Category: expense.CategoryFood, Label: "a", Date: now},
		{ID: uuid.New(), Amount: 3000, Category: expense.CategoryFood, Label: "b", Date: now},
	}, nil)
	f.budgets.EXPECT().ListBudgets(gomock.Any(), f.userID).Return([]*budget.Budget{
		{ID: uuid.New(), Amount: 10000, Period: budget.PeriodOf(now), CreatedAt: now},
	}, nil)

	rec := f.do(http.MethodGet, "/api/v1/summaries/current", "", f.token)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		TotalSpent string `json:"total_spent"`
		Remaining  string `json:"remaining"`
		Status     string `json:"status"`
		Alert      *struct {
			Level string `json:"level"`
			Title string `json:"title"`
		} `json:"alert"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, "80.00", got.TotalSpent)
	assert.Equal(t, "20.00", got.Remaining)
	assert.Equal(t, "WARNING", got.Status)
	require.NotNil(t, got.Alert)
	assert.Equal(t, "info", got.Alert.Level)
	assert.Equal(t, "Warning", got.Alert.Title)
}

func TestRouter_ExportCSV(t *testing.T) {
	f := newFixture(t, nil)

	f.expenses.EXPECT().ListExpenses(gomock.Any(), f.userID, expense.ListFilter{}).Return([]*expense.Expense{
		{ID: uuid.New(), Amount: 250, Category: expense.CategoryFood, Label: "Coffee", Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
	}, nil)

	rec := f.do(http.MethodGet, "/api/v1/export/expenses", "", f.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Equal(t, "date,label,category,amount,note\n2024-03-05,Coffee,Food,2.50,\n", rec.Body.String())
}

func TestRouter_LoginRateLimited(t *testing.T) {
	f := newFixture(t, spendlyHttp.NewRateLimiter(1, 1))

	f.users.EXPECT().GetUserByEmail(gomock.Any(), "ana@example.com").Return(nil, auth.ErrNotFound)

	body := `{"email":"ana@example.com","password":"secret1"}`

	rec := f.do(http.MethodPost, "/api/v1/auth/login", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRouter_SignUpEmailTaken(t *testing.T) {
	f := newFixture(t, nil)

	f.users.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(auth.ErrEmailTaken)

	rec := f.do(http.MethodPost, "/api/v1/auth/signup", `{"email":"ana@example.com","password":"secret1"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouter_WebsocketRequiresToken(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/v1/ws", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/ws?token=bogus", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
