package claims

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/MrEthical07/goPerm/permission"
	gjwt "github.com/golang-jwt/jwt/v5"
)

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func newEdManager(t *testing.T, mutate func(*Config)) (*Manager, ed25519.PrivateKey) {
	t.Helper()
	pub, priv := newEdKeys(t)
	cfg := Config{
		TTL:           time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "goperm",
		Audience:      "api",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m, priv
}

func TestSignParseRoundTrip(t *testing.T) {
	m, _ := newEdManager(t, nil)
	codec := permission.NewCodec(permission.DefaultCatalog())

	set := permission.SetOf(
		permission.Module("tickets", permission.ActionShow, permission.ActionDelete),
		permission.Module("Leads CRM.Create LEAD", permission.ActionAdd),
	)
	token, err := m.Sign("u1", "r1", codec.Encode(set))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "u1" || claims.RoleID != "r1" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	got, err := claims.Set(codec)
	if err != nil {
		t.Fatalf("decode carried permissions: %v", err)
	}
	if !got.Equal(permission.Normalize(set)) {
		t.Fatalf("got %v want %v", got, set)
	}
}

func TestSignSuperAdmin(t *testing.T) {
	m, _ := newEdManager(t, nil)
	codec := permission.NewCodec(permission.DefaultCatalog())

	token, err := m.Sign("root", "", codec.Encode(permission.SuperAdminSet()))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, err := claims.Set(codec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.IsSuperAdmin() {
		t.Fatalf("expected SuperAdmin, got %v", got)
	}
}

func TestSignRequiresSubject(t *testing.T) {
	m, _ := newEdManager(t, nil)
	if _, err := m.Sign(" ", "r1", nil); err == nil {
		t.Fatal("expected empty subject to be rejected")
	}
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	m, _ := newEdManager(t, nil)

	claims := PermissionClaims{RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
	}}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims)
	token, err := tok.SignedString([]byte("secret-secret-secret-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected wrong algorithm to be rejected")
	}
}

func TestParseIssuerAudience(t *testing.T) {
	m, priv := newEdManager(t, nil)

	sign := func(issuer, audience string) string {
		c := PermissionClaims{RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    issuer,
			Audience:  gjwt.ClaimStrings{audience},
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  gjwt.NewNumericDate(time.Now()),
		}}
		s, err := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, c).SignedString(priv)
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}
		return s
	}

	if _, err := m.Parse(sign("goperm", "api")); err != nil {
		t.Fatalf("expected valid token to parse: %v", err)
	}
	if _, err := m.Parse(sign("other", "api")); err == nil {
		t.Fatal("expected wrong issuer to fail")
	}
	if _, err := m.Parse(sign("goperm", "other-api")); err == nil {
		t.Fatal("expected wrong audience to fail")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	m, _ := newEdManager(t, nil)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := m.Sign("u1", "r1", nil)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	m.now = time.Now
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseRejectsFutureIAT(t *testing.T) {
	m, _ := newEdManager(t, func(c *Config) {
		c.TTL = 48 * time.Hour
		c.MaxFutureIAT = time.Minute
	})
	m.now = func() time.Time { return time.Now().Add(time.Hour) }

	token, err := m.Sign("u1", "r1", nil)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	m.now = time.Now
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected future iat to fail")
	}
}

func TestHS256RoundTripWithKeyID(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	m, err := NewManager(Config{
		TTL:           time.Minute,
		SigningMethod: MethodHS256,
		PrivateKey:    secret,
		KeyID:         "k1",
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, err := m.Sign("u1", "r1", nil)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(claims.Permissions) != 0 {
		t.Fatalf("expected no permissions, got %v", claims.Permissions)
	}

	other, err := NewManager(Config{
		TTL:           time.Minute,
		SigningMethod: MethodHS256,
		PrivateKey:    secret,
		KeyID:         "k2",
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := other.Parse(token); err == nil {
		t.Fatal("expected kid mismatch to fail")
	}
}

func TestVerifyKeysSelectByKid(t *testing.T) {
	pub1, priv1 := newEdKeys(t)
	pub2, _ := newEdKeys(t)

	signer, err := NewManager(Config{
		TTL: time.Minute, SigningMethod: MethodEd25519,
		PrivateKey: priv1, PublicKey: pub1, KeyID: "k1",
	})
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	token, err := signer.Sign("u1", "r1", nil)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	verifier, err := NewManager(Config{
		TTL: time.Minute, SigningMethod: MethodEd25519,
		VerifyKeys: map[string][]byte{"k1": pub1, "k2": pub2},
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	if _, err := verifier.Parse(token); err != nil {
		t.Fatalf("expected kid k1 to verify: %v", err)
	}

	wrong, err := NewManager(Config{
		TTL: time.Minute, SigningMethod: MethodEd25519,
		VerifyKeys: map[string][]byte{"k1": pub2},
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	if _, err := wrong.Parse(token); err == nil {
		t.Fatal("expected wrong key for kid to fail")
	}
}

func TestNewManagerRejects(t *testing.T) {
	pub, _ := newEdKeys(t)
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero ttl", Config{SigningMethod: MethodHS256, PrivateKey: []byte("k")}},
		{"leeway too large", Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("k"), Leeway: time.Hour}},
		{"hs256 without key", Config{TTL: time.Minute, SigningMethod: MethodHS256}},
		{"ed25519 without public key", Config{TTL: time.Minute, SigningMethod: MethodEd25519}},
		{"bad public key", Config{TTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: []byte("short")}},
		{"unknown method", Config{TTL: time.Minute, SigningMethod: "rs256", PublicKey: pub}},
		{"kid missing from verify keys", Config{TTL: time.Minute, SigningMethod: MethodEd25519, KeyID: "k9",
			VerifyKeys: map[string][]byte{"k1": pub}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewManager(tc.cfg); err == nil {
				t.Fatal("expected NewManager to fail")
			}
		})
	}
}
