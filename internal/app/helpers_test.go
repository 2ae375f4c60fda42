package app_test

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"video-quiz-service/internal/app"
	"video-quiz-service/internal/auth"
	"video-quiz-service/internal/domain"
	badgerstore "video-quiz-service/internal/infra/badger"
)

func newStore(t *testing.T) *badgerstore.Store {
	t.Helper()
	store, err := badgerstore.OpenInMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newAuthService(t *testing.T, store *badgerstore.Store) *app.AuthService {
	t.Helper()
	tokens, err := auth.NewTokenIssuer("access-secret", "refresh-secret")
	if err != nil {
		t.Fatalf("token issuer: %v", err)
	}
	return app.NewAuthServiceWithCost(store, tokens, bcrypt.MinCost)
}

func registerInput(email, phone string) app.RegisterInput {
	return app.RegisterInput{
		Name:     "Asha",
		Email:    email,
		Password: "secret123",
		Phone:    phone,
		State:    "Karnataka",
		District: "Mysuru",
		Pincode:  "570001",
	}
}

func mustRegister(t *testing.T, svc *app.AuthService, email, phone string) (domain.Profile, auth.TokenPair) {
	t.Helper()
	profile, pair, err := svc.Register(context.Background(), registerInput(email, phone))
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return profile, pair
}
