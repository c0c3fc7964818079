package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var secret = []byte("test-secret")

func validClaims() Claims {
	return Claims{
		Sub:      "21cs042@mgits.ac.in",
		Role:     "student",
		Branch:   "CS",
		Semester: 5,
		JTI:      "jti_abc",
		Exp:      time.Now().Add(time.Hour).Unix(),
	}
}

func TestIssueAndParse(t *testing.T) {
	token, err := IssueToken(secret, validClaims())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Sub != "21cs042@mgits.ac.in" || claims.Role != "student" {
		t.Fatalf("wrong claims: %+v", claims)
	}
	if claims.Branch != "CS" || claims.Semester != 5 {
		t.Fatalf("cohort claims dropped: %+v", claims)
	}
}

func TestParseRejectsTampering(t *testing.T) {
	token, err := IssueToken(secret, validClaims())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	t.Run("wrong secret", func(t *testing.T) {
		if _, err := ParseToken([]byte("other-secret"), token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("got %v, want ErrInvalidToken", err)
		}
	})

	t.Run("modified payload", func(t *testing.T) {
		parts := strings.Split(token, ".")
		other, _ := IssueToken(secret, Claims{
			Sub: "jacob@mgits.ac.in", Role: "teacher", JTI: "jti_x",
			Exp: time.Now().Add(time.Hour).Unix(),
		})
		forged := strings.Split(other, ".")[0] + "." + parts[1]
		if _, err := ParseToken(secret, forged); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("got %v, want ErrInvalidToken", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		for _, bad := range []string{"", "one-part", "a.b.c", "not base64.sig"} {
			if _, err := ParseToken(secret, bad); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("ParseToken(%q) = %v, want ErrInvalidToken", bad, err)
			}
		}
	})
}

func TestParseExpired(t *testing.T) {
	claims := validClaims()
	claims.Exp = time.Now().Add(-time.Minute).Unix()
	token, err := IssueToken(secret, claims)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseToken(secret, token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("got %v, want ErrExpiredToken", err)
	}
}

func TestHashTokenStable(t *testing.T) {
	a := HashToken("refresh-token-value")
	b := HashToken("refresh-token-value")
	if a != b {
		t.Fatal("hash not deterministic")
	}
	if a == "refresh-token-value" || len(a) != 64 {
		t.Fatalf("unexpected hash %q", a)
	}
	if HashToken("other") == a {
		t.Fatal("distinct inputs collided")
	}
}
