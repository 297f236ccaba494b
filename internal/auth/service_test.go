package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/spendly/internal/auth"
)

const secret = "0123456789abcdef0123456789abcdef"

func newService(repo auth.Repository) *auth.Service {
	return auth.NewService(repo, auth.NewTokens(secret, time.Hour)).WithHashCost(bcrypt.MinCost)
}

func hashed(t *testing.T, password string) string {
	t.Helper()

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	return string(h)
}

func TestService_SignUp(t *testing.T) {
	type args struct {
		email    string
		password string
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *auth.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{email: "  Ana@Example.com ", password: "secret1"},
			setupMock: func(m *auth.MockRepository) {
				m.EXPECT().
					CreateUser(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, u *auth.User) error {
						assert.Equal(t, "ana@example.com", u.Email)
						assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")))
						u.ID = uuid.New()
						return nil
					})
			},
		},
		{
			name:    "InvalidEmail",
			args:    args{email: "not-an-email", password: "secret1"},
			wantErr: auth.ErrInvalidEmail,
		},
		{
			name:    "WeakPassword",
			args:    args{email: "ana@example.com", password: "12345"},
			wantErr: auth.ErrWeakPassword,
		},
		{
			name: "EmailTaken",
			args: args{email: "ana@example.com", password: "secret1"},
			setupMock: func(m *auth.MockRepository) {
				m.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(auth.ErrEmailTaken)
			},
			wantErr: auth.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := auth.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			got, err := newService(repo).SignUp(context.Background(), tt.args.email, tt.args.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, got.ID)
		})
	}
}

func TestService_Login(t *testing.T) {
	user := &auth.User{ID: uuid.New(), Email: "ana@example.com", PasswordHash: hashed(t, "secret1")}

	type testCase struct {
		name      string
		email     string
		password  string
		setupMock func(m *auth.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:     "Success",
			email:    "ANA@example.com",
			password: "secret1",
			setupMock: func(m *auth.MockRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "ana@example.com").Return(user, nil)
			},
		},
		{
			name:     "WrongPassword",
			email:    "ana@example.com",
			password: "nope123",
			setupMock: func(m *auth.MockRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "ana@example.com").Return(user, nil)
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name:     "UnknownUser",
			email:    "bob@example.com",
			password: "secret1",
			setupMock: func(m *auth.MockRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "bob@example.com").Return(nil, auth.ErrNotFound)
			},
			wantErr: auth.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := auth.NewMockRepository(ctrl)
			tt.setupMock(repo)

			svc := newService(repo)
			token, got, err := svc.Login(context.Background(), tt.email, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, user, got)

			id, err := svc.Authenticate(token)
			require.NoError(t, err)
			assert.Equal(t, user.ID, id)
		})
	}
}

func TestService_UpdatePassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := auth.NewMockRepository(ctrl)
	id := uuid.New()

	repo.EXPECT().
		UpdatePasswordHash(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, hash string) error {
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("longer-secret")))
			return nil
		})

	svc := newService(repo)
	require.NoError(t, svc.UpdatePassword(context.Background(), id, "longer-secret"))
	assert.ErrorIs(t, svc.UpdatePassword(context.Background(), id, "short"), auth.ErrWeakPassword)
}

func TestService_UpdateEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := auth.NewMockRepository(ctrl)
	id := uuid.New()

	repo.EXPECT().UpdateEmail(gomock.Any(), id, "new@example.com").Return(nil)

	svc := newService(repo)
	require.NoError(t, svc.UpdateEmail(context.Background(), id, "New@Example.com"))
	assert.ErrorIs(t, svc.UpdateEmail(context.Background(), id, "@@"), auth.ErrInvalidEmail)
}

func TestTokens(t *testing.T) {
	tokens := auth.NewTokens(secret, time.Hour)
	id := uuid.New()

	token, err := tokens.Issue(id)
	require.NoError(t, err)

	got, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = auth.NewTokens("another-secret-another-secret-xx", time.Hour).Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = tokens.Verify("garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	expired, err := auth.NewTokens(secret, -time.Minute).Issue(id)
	require.NoError(t, err)

	_, err = tokens.Verify(expired)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := auth.NewMockRepository(ctrl)
	user := &auth.User{ID: uuid.New(), Email: "ana@example.com", PasswordHash: hashed(t, "secret1")}

	repo.EXPECT().GetUserByEmail(gomock.Any(), "ana@example.com").Return(user, nil)
	repo.EXPECT().GetUser(gomock.Any(), user.ID).Return(&auth.User{ID: user.ID, Email: "new@example.com"}, nil)

	session := auth.NewSession(newService(repo))

	_, ok := session.Current()
	assert.False(t, ok)
	assert.ErrorIs(t, session.Refresh(context.Background()), auth.ErrNotSignedIn)

	_, err := session.SignIn(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID())
	assert.NotEmpty(t, session.Token())

	require.NoError(t, session.Refresh(context.Background()))
	current, ok := session.Current()
	require.True(t, ok)
	assert.Equal(t, "new@example.com", current.Email)

	session.SignOut()
	assert.Equal(t, uuid.Nil, session.UserID())
	assert.Empty(t, session.Token())
}

func TestContextUserID(t *testing.T) {
	_, ok := auth.UserIDFrom(context.Background())
	assert.False(t, ok)

	id := uuid.New()
	got, ok := auth.UserIDFrom(auth.WithUserID(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}
