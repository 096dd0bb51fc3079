package api

import (
	"context"
	"testing"
)

func TestNewServer_BaseContext(t *testing.T) {
	s := NewServer(ServerConfig{Logger: testLogger()})
	if s.httpServer.BaseContext != nil {
		t.Fatal("BaseContext set without a configured context")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s = NewServer(ServerConfig{Logger: testLogger(), BaseContext: ctx})
	if s.httpServer.BaseContext == nil {
		t.Fatal("BaseContext not set")
	}
	reqCtx := s.httpServer.BaseContext(nil)

	cancel()
	select {
	case <-reqCtx.Done():
	default:
		t.Error("request base context not cancelled with the agent context")
	}
}
