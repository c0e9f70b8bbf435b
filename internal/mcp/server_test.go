package mcp

import (
	"context"
	"testing"
)

func TestNewServerRequiresCache(t *testing.T) {
	_, err := NewServer(&Config{Name: "vbcache", Version: "test"})
	if err == nil {
		t.Fatal("expected error when cache is missing")
	}
}

func TestNewServer(t *testing.T) {
	s := newTestServer(t)
	if s.server == nil {
		t.Error("expected underlying MCP server")
	}
	if s.toolLimiters == nil {
		t.Error("expected tool limiters")
	}
}

func TestServerCloseIdempotent(t *testing.T) {
	s := newTestServer(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestToolRateLimiting(t *testing.T) {
	s := newTestServer(t)

	// vb_validate has burst 2; the third call inside the window must fail.
	in := VBValidateInput{}
	for i := 0; i < 2; i++ {
		if _, _, err := s.handleVBValidate(context.Background(), nil, in); err != nil {
			t.Fatalf("call %d: handleVBValidate() error = %v", i, err)
		}
	}
	if _, _, err := s.handleVBValidate(context.Background(), nil, in); err == nil {
		t.Fatal("expected rate limit error on third call")
	}
}
