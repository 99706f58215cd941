package global

import "testing"

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load accepted an empty JWT_SECRET")
	}
}

func TestLoadDefaultsAndOrigins(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CLIENT_URL", "https://chat.example.com")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Port != "5001" {
		t.Fatalf("Port = %q, want default 5001", c.Port)
	}
	if string(c.JWTSecret) != "test-secret" {
		t.Fatalf("JWTSecret = %q", c.JWTSecret)
	}

	want := map[string]bool{
		"https://chat.example.com": false,
		"https://a.example.com":    false,
		"https://b.example.com":    false,
	}
	for _, o := range c.Origins {
		if _, ok := want[o]; ok {
			want[o] = true
		}
	}
	for o, seen := range want {
		if !seen {
			t.Fatalf("origin %s missing from %v", o, c.Origins)
		}
	}
}

func TestLoadRelayDevFlag(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	t.Setenv("RELAY_ALLOW_UNVERIFIED", "true")
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !c.RelayAllowUnverified {
		t.Fatal("RELAY_ALLOW_UNVERIFIED=true not honored")
	}

	t.Setenv("RELAY_ALLOW_UNVERIFIED", "")
	c, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.RelayAllowUnverified {
		t.Fatal("unverified handshake enabled by default")
	}
}
