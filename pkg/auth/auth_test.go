package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"tutorkit/pkg/store"
)

func TestPasswordHashing(t *testing.T) {
	t.Run("should accept the original password", func(t *testing.T) {
		hash, err := HashPassword("teacher123")
		if err != nil {
			t.Fatalf("hashing password: %v", err)
		}
		if err := CheckPassword(hash, "teacher123"); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
	})

	t.Run("should reject a wrong password", func(t *testing.T) {
		hash, err := HashPassword("teacher123")
		if err != nil {
			t.Fatalf("hashing password: %v", err)
		}
		if err := CheckPassword(hash, "student123"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("\nwanted:\nErrInvalidCredentials\ngot:\n%v", err)
		}
	})
}

func TestTokenRoundTrip(t *testing.T) {
	authn := New("test-secret", time.Hour)
	user := &store.User{ID: 7, Username: "student1", Role: store.RoleStudent}

	token, err := authn.GenerateToken(user)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("\nwanted:\nthree-part token\ngot:\n%q", token)
	}

	claims, err := authn.Authenticate(token)
	if err != nil {
		t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
	}
	if claims.UserID != 7 || claims.Username != "student1" || claims.Role != store.RoleStudent {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	t.Run("should reject tokens signed with another secret", func(t *testing.T) {
		issuer := New("secret-a", time.Hour)
		verifier := New("secret-b", time.Hour)

		token, err := issuer.GenerateToken(&store.User{ID: 1, Username: "teacher1", Role: store.RoleTeacher})
		if err != nil {
			t.Fatalf("generating token: %v", err)
		}
		if _, err := verifier.Authenticate(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("\nwanted:\nErrInvalidToken\ngot:\n%v", err)
		}
	})

	t.Run("should reject expired tokens", func(t *testing.T) {
		authn := New("test-secret", -time.Minute)

		token, err := authn.GenerateToken(&store.User{ID: 1, Username: "teacher1", Role: store.RoleTeacher})
		if err != nil {
			t.Fatalf("generating token: %v", err)
		}
		if _, err := authn.Authenticate(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("\nwanted:\nErrInvalidToken\ngot:\n%v", err)
		}
	})

	t.Run("should reject garbage", func(t *testing.T) {
		authn := New("test-secret", time.Hour)
		if _, err := authn.Authenticate("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("\nwanted:\nErrInvalidToken\ngot:\n%v", err)
		}
	})
}
