package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"video-quiz-service/internal/domain"
)

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		taken, err := emailOrPhoneTaken(txn, user.Email, user.Phone)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrDuplicateUser
		}
		if err := setJSON(txn, userPrefix+user.ID, user); err != nil {
			return err
		}
		if err := txn.Set([]byte(userEmailPrefix+user.Email), []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(userPhonePrefix+user.Phone), []byte(user.ID))
	})
}

func (s *Store) UserByID(_ context.Context, id string) (domain.User, error) {
	var user domain.User
	err := s.db.View(func(txn *badger.Txn) error {
		return getUser(txn, id, &user)
	})
	return user, err
}

func (s *Store) UserByEmail(_ context.Context, email string) (domain.User, error) {
	var user domain.User
	err := s.db.View(func(txn *badger.Txn) error {
		return getUserByEmail(txn, email, &user)
	})
	return user, err
}

func (s *Store) EmailOrPhoneTaken(_ context.Context, email, phone string) (bool, error) {
	var taken bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		taken, err = emailOrPhoneTaken(txn, email, phone)
		return err
	})
	return taken, err
}

func (s *Store) SetRefreshToken(ctx context.Context, userID string, token *string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		var user domain.User
		if err := getUser(txn, userID, &user); err != nil {
			return err
		}
		user.RefreshToken = token
		user.UpdatedAt = time.Now()
		return setJSON(txn, userPrefix+user.ID, user)
	})
}

func (s *Store) SetRole(ctx context.Context, email string, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		var user domain.User
		if err := getUserByEmail(txn, email, &user); err != nil {
			return err
		}
		user.Role = role
		user.UpdatedAt = time.Now()
		return setJSON(txn, userPrefix+user.ID, user)
	})
}

func getUser(txn *badger.Txn, id string, dst *domain.User) error {
	err := getJSON(txn, userPrefix+id, dst)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.ErrUserNotFound
	}
	return err
}

func getUserByEmail(txn *badger.Txn, email string, dst *domain.User) error {
	item, err := txn.Get([]byte(userEmailPrefix + email))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.ErrUserNotFound
	}
	if err != nil {
		return err
	}
	id, err := item.ValueCopy(nil)
	if err != nil {
		return err
	}
	return getUser(txn, string(id), dst)
}

func emailOrPhoneTaken(txn *badger.Txn, email, phone string) (bool, error) {
	taken, err := exists(txn, userEmailPrefix+email)
	if err != nil || taken {
		return taken, err
	}
	return exists(txn, userPhonePrefix+phone)
}
