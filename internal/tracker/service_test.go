package tracker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/spendly/internal/budget"
	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/money"
	"github.com/MrJamesThe3rd/spendly/internal/tracker"
)

var userID = uuid.New()

func TestService_Current(t *testing.T) {
	now := time.Date(2024, 3, 28, 14, 0, 0, 0, time.UTC)

	type testCase struct {
		name      string
		expenses  []*expense.Expense
		budgets   []*budget.Budget
		want      tracker.PeriodSummary
		wantAlert bool
	}

	tests := []testCase{
		{
			name:     "Exceeded",
			expenses: []*expense.Expense{exp(6000, date(2024, 3, 2)), exp(5000, date(2024, 3, 27))},
			budgets:  []*budget.Budget{bud(10000, march, date(2024, 3, 1))},
			want: tracker.PeriodSummary{
				Period: march, BudgetAmount: 10000, TotalSpent: 11000, Remaining: -1000,
				Status: tracker.StatusExceeded,
			},
			wantAlert: true,
		},
		{
			name:     "OtherMonthsIgnored",
			expenses: []*expense.Expense{exp(6000, date(2024, 2, 2))},
			budgets:  []*budget.Budget{bud(10000, march, date(2024, 3, 1))},
			want: tracker.PeriodSummary{
				Period: march, BudgetAmount: 10000, Remaining: 10000, Status: tracker.StatusNormal,
			},
		},
		{
			name: "NothingRecorded",
			want: tracker.PeriodSummary{Period: march, Status: tracker.StatusNormal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			expenses := tracker.NewMockExpenseSource(ctrl)
			budgets := tracker.NewMockBudgetSource(ctrl)

			expenses.EXPECT().List(gomock.Any(), userID, expense.ListFilter{}).Return(tt.expenses, nil)
			budgets.EXPECT().List(gomock.Any(), userID).Return(tt.budgets, nil)

			svc := tracker.NewService(expenses, budgets)
			got, err := svc.Current(context.Background(), userID, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantAlert, tracker.AlertFor(got) != nil)
		})
	}
}

func TestService_Monthly_FetchError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	expenses := tracker.NewMockExpenseSource(ctrl)
	budgets := tracker.NewMockBudgetSource(ctrl)

	expenses.EXPECT().List(gomock.Any(), userID, gomock.Any()).Return(nil, errors.New("db down"))

	svc := tracker.NewService(expenses, budgets)
	_, err := svc.Monthly(context.Background(), userID)
	assert.ErrorContains(t, err, "fetching expenses")
}

func TestService_Categories(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	expenses := tracker.NewMockExpenseSource(ctrl)

	start, end := march.Start(), march.End()
	expenses.EXPECT().
		List(gomock.Any(), userID, expense.ListFilter{StartDate: &start, EndDate: &end}).
		Return([]*expense.Expense{
			{Amount: 300, Category: expense.CategoryFood, Date: date(2024, 3, 1)},
			{Amount: 900, Category: expense.CategoryHousing, Date: date(2024, 3, 2)},
		}, nil)

	svc := tracker.NewService(expenses, tracker.NewMockBudgetSource(ctrl))
	got, err := svc.Categories(context.Background(), userID, march)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, expense.CategoryHousing, got[0].Category)
	assert.Equal(t, int64(300), got[1].Amount)
}

func TestService_Dashboard(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var list []*expense.Expense
	for i := range 7 {
		list = append(list, &expense.Expense{
			ID:       uuid.New(),
			Amount:   int64(100 * (i + 1)),
			Category: expense.CategoryFood,
			Date:     date(2024, 3, i+1),
		})
	}

	expenses := tracker.NewMockExpenseSource(ctrl)
	expenses.EXPECT().List(gomock.Any(), userID, expense.ListFilter{}).Return(list, nil)

	svc := tracker.NewService(expenses, tracker.NewMockBudgetSource(ctrl))
	got, err := svc.Dashboard(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2800), got.Total)
	assert.Len(t, got.Recent, tracker.RecentLimit)
	assert.Equal(t, list[0].ID, got.Recent[0].ID)
	require.Len(t, got.Breakdown, 1)
	assert.InDelta(t, 100.0, got.Breakdown[0].Percent, 0.001)
}

func TestService_Dashboard_TotalOverflow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	list := []*expense.Expense{
		{ID: uuid.New(), Amount: 5e18, Category: expense.CategoryFood, Date: date(2024, 3, 1)},
		{ID: uuid.New(), Amount: 5e18, Category: expense.CategoryHousing, Date: date(2024, 3, 2)},
	}

	expenses := tracker.NewMockExpenseSource(ctrl)
	expenses.EXPECT().List(gomock.Any(), userID, expense.ListFilter{}).Return(list, nil)

	svc := tracker.NewService(expenses, tracker.NewMockBudgetSource(ctrl))
	got, err := svc.Dashboard(context.Background(), userID)
	assert.ErrorIs(t, err, money.ErrInvalidAmount)
	assert.Nil(t, got)
}
