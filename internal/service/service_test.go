package service

import (
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/gearguard/internal/config"
	"github.com/pribylovaa/gearguard/internal/pkg/password"
	"github.com/pribylovaa/gearguard/mocks"
)

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		AccessTokenSecret:  "unit-access-secret",
		RefreshTokenSecret: "unit-refresh-secret",
		AccessTokenTTL:     30 * time.Second,
		RefreshTokenTTL:    24 * time.Hour,
		Issuer:             "gearguard",
		Audience:           []string{"gearguard-web"},
		BcryptCost:         bcrypt.MinCost,
	}
}

func newSvc(t *testing.T) (*Service, *mocks.MockStorage) {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)

	return New(st, testCfg()), st
}

func mustHash(t *testing.T, pw string) password.Hashed {
	t.Helper()

	h, err := password.Hash(password.Plaintext(pw), bcrypt.MinCost)
	require.NoError(t, err)

	return h
}

// fixedNow подменяет часы сервиса для детерминированного isOverdue.
func fixedNow(svc *Service, now time.Time) {
	svc.now = func() time.Time { return now }
}

func ptr[T any](v T) *T { return &v }

func mocksPublisher(t *testing.T) *mocks.MockPublisher {
	t.Helper()

	return mocks.NewMockPublisher(gomock.NewController(t))
}
