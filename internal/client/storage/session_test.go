package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_Expired(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt int64
		want      bool
	}{
		{name: "unknown expiry", expiresAt: 0, want: false},
		{name: "in the future", expiresAt: now.Add(time.Hour).Unix(), want: false},
		{name: "exactly now", expiresAt: now.Unix(), want: true},
		{name: "in the past", expiresAt: now.Add(-time.Second).Unix(), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, s.Expired(now))
		})
	}
}
