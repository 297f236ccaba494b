package budget_test

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
	"github.com/MrJamesThe3rd/spendly/internal/feed"
	"github.com/MrJamesThe3rd/spendly/internal/money"
)

type countingPublisher struct {
	events []feed.Event
}

func (p *countingPublisher) Publish(_ uuid.UUID, event feed.Event) {
	p.events = append(p.events, event)
}

var (
	userID = uuid.New()
	march  = budget.Period{Year: 2024, Month: time.March}
)

func TestService_Set(t *testing.T) {
	type args struct {
		params budget.SetParams
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *budget.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{params: budget.SetParams{Amount: 10000, Period: march}},
			setupMock: func(m *budget.MockRepository) {
				m.EXPECT().
					CreateBudget(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, b *budget.Budget) error {
						assert.Equal(t, march, b.Period)
						b.ID = uuid.New()
						b.CreatedAt = time.Now()
						return nil
					})
			},
		},
		{
			name:    "ZeroAmount",
			args:    args{params: budget.SetParams{Amount: 0, Period: march}},
			wantErr: money.ErrInvalidAmount,
		},
		{
			name:    "NegativeAmount",
			args:    args{params: budget.SetParams{Amount: -1, Period: march}},
			wantErr: money.ErrInvalidAmount,
		},
		{
			name:    "AmountAboveCeiling",
			args:    args{params: budget.SetParams{Amount: money.MaxCents + 1, Period: march}},
			wantErr: money.ErrInvalidAmount,
		},
		{
			name:    "MissingPeriod",
			args:    args{params: budget.SetParams{Amount: 100}},
			wantErr: budget.ErrInvalidPeriod,
		},
		{
			name: "RepoError",
			args: args{params: budget.SetParams{Amount: 100, Period: march}},
			setupMock: func(m *budget.MockRepository) {
				m.EXPECT().CreateBudget(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			wantErr: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := budget.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			pub := &countingPublisher{}
			svc := budget.NewService(repo, pub)
			got, err := svc.Set(context.Background(), userID, tt.args.params)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Nil(t, got)
				assert.Empty(t, pub.events)

				if tt.name != "RepoError" {
					assert.ErrorIs(t, err, tt.wantErr)
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(10000), got.Amount)
			require.Len(t, pub.events, 1)
			assert.Equal(t, "budget.created", pub.events[0].Type)
		})
	}
}

func TestService_Effective(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	type testCase struct {
		name    string
		records []*budget.Budget
		wantID  uuid.UUID
		wantErr error
	}

	tests := []testCase{
		{
			name: "LatestCreatedWins",
			records: []*budget.Budget{
				{ID: high, Amount: 100, Period: march, CreatedAt: base.Add(time.Hour)},
				{ID: low, Amount: 200, Period: march, CreatedAt: base},
			},
			wantID: high,
		},
		{
			name: "TieBrokenByID",
			records: []*budget.Budget{
				{ID: high, Amount: 100, Period: march, CreatedAt: base},
				{ID: low, Amount: 200, Period: march, CreatedAt: base},
			},
			wantID: high,
		},
		{
			name:    "None",
			wantErr: budget.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := budget.NewMockRepository(ctrl)
			repo.EXPECT().ListBudgetsForPeriod(gomock.Any(), userID, march).Return(tt.records, nil)

			svc := budget.NewService(repo, nil)
			got, err := svc.Effective(context.Background(), userID, march)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestPeriod(t *testing.T) {
	p, err := budget.ParsePeriod("2024-03")
	require.NoError(t, err)
	assert.Equal(t, march, p)
	assert.Equal(t, "2024-03", p.String())
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), p.Start())
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), p.End())
	assert.Equal(t, budget.Period{Year: 2024, Month: time.April}, p.Next())
	assert.Equal(t, budget.Period{Year: 2024, Month: time.February}, p.Prev())
	assert.True(t, p.Prev().Before(p))
	assert.False(t, p.Before(p))

	dec := budget.Period{Year: 2023, Month: time.December}
	assert.Equal(t, budget.Period{Year: 2024, Month: time.January}, dec.Next())

	_, err = budget.ParsePeriod("March 2024")
	assert.ErrorIs(t, err, budget.ErrInvalidPeriod)

	_, err = budget.ParsePeriod("2024-13")
	assert.ErrorIs(t, err, budget.ErrInvalidPeriod)
}

func TestPeriodOf_SameMonthSameKey(t *testing.T) {
	a := budget.PeriodOf(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	b := budget.PeriodOf(time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC))
	c := budget.PeriodOf(time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestPeriod_Text(t *testing.T) {
	text, err := march.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2024-03", string(text))

	var p budget.Period
	require.NoError(t, p.UnmarshalText([]byte("2024-11")))
	assert.Equal(t, budget.Period{Year: 2024, Month: time.November}, p)
	assert.Error(t, p.UnmarshalText([]byte("nope")))
}
