package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/survivordash/dash/internal/config"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(config.APIConfig{BaseURL: srv.URL, Timeout: time.Second, Workers: 2}, zap.NewNop())
	t.Cleanup(c.Close)
	return c, srv
}

// pump drives the client like the frame loop until done reports true.
func pump(t *testing.T, c *Client, done func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		c.Drain()
		c.Poll()
		return done()
	}, 2*time.Second, time.Millisecond)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestDevLoginNestedUnderData(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/dev-login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		writeJSON(w, 200, map[string]any{
			"success": true,
			"data": map[string]any{
				"token": "tok-1",
				"user":  map[string]any{"id": "u1", "username": "dev"},
			},
		})
	}))

	var got *AuthResult
	c.DevLogin(func(res AuthResult, err error) {
		require.NoError(t, err)
		got = &res
	})
	pump(t, c, func() bool { return got != nil })

	assert.Equal(t, "tok-1", got.Token)
	assert.Equal(t, "dev", got.User.Username)
	assert.Equal(t, 1, got.User.Level, "default level")
	assert.Equal(t, 50, got.User.Coins, "default coins")
}

func TestLoginEmailTokenAtRoot(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.c", body["email"])
		writeJSON(w, 200, map[string]any{
			"success": true,
			"token":   "tok-2",
			"user":    map[string]any{"username": "amy", "level": 7, "coins": 0},
		})
	}))

	done := false
	c.LoginEmail("a@b.c", "secret", func(res AuthResult, err error) {
		require.NoError(t, err)
		assert.Equal(t, "tok-2", res.Token)
		assert.Equal(t, 7, res.User.Level)
		assert.Equal(t, 0, res.User.Coins)
		done = true
	})
	pump(t, c, func() bool { return done })
}

func TestBearerTokenSent(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		writeJSON(w, 200, map[string]any{"success": true, "data": map[string]any{"username": "amy", "best_score": 900}})
	}))
	c.SetAuthToken("abc")
	assert.Equal(t, "abc", c.AuthToken())

	var p *Progress
	c.GetProgress(c.Root(), func(got Progress, err error) {
		require.NoError(t, err)
		p = &got
	})
	pump(t, c, func() bool { return p != nil })
	assert.Equal(t, 900, p.BestScore)
}

func TestNonSuccessStatus(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	var got error
	c.SaveProgress(c.Root(), ProgressSave{}, func(err error) { got = err })
	pump(t, c, func() bool { return got != nil })

	var hs *HTTPStatusError
	require.ErrorAs(t, got, &hs)
	assert.Equal(t, "HTTP 500", got.Error())
	assert.Equal(t, "HTTP 500", Message(got))
}

func TestServerErrorMessagePreferred(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Invalid credentials"})
	}))

	var got error
	c.LoginEmail("a@b.c", "nope", func(_ AuthResult, err error) { got = err })
	pump(t, c, func() bool { return got != nil })

	assert.Equal(t, "HTTP 401", got.Error())
	assert.Equal(t, "Invalid credentials", Message(got))
}

func TestMalformedBodyIsParseError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))

	var got error
	c.DevLogin(func(_ AuthResult, err error) { got = err })
	pump(t, c, func() bool { return got != nil })

	var pe *ParseError
	assert.ErrorAs(t, got, &pe)
	var te *TransportError
	assert.False(t, errors.As(got, &te))
}

func TestRejectedEnvelope(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"success": false, "error": "No active session"})
	}))

	var got error
	c.EndSession(c.Root(), SessionResult{SessionID: "s"}, func(err error) { got = err })
	pump(t, c, func() bool { return got != nil })

	var re *RejectedError
	require.ErrorAs(t, got, &re)
	assert.Equal(t, "No active session", re.Message)
}

func TestUnreachableHostIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(config.APIConfig{BaseURL: url, Timeout: time.Second, Workers: 1}, zap.NewNop())
	defer c.Close()

	var got error
	c.SaveProgress(c.Root(), ProgressSave{}, func(err error) { got = err })
	pump(t, c, func() bool { return got != nil })

	var te *TransportError
	assert.ErrorAs(t, got, &te)
}

func TestTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(config.APIConfig{BaseURL: srv.URL, Timeout: 30 * time.Millisecond, Workers: 1}, zap.NewNop())
	defer c.Close()

	var got error
	c.SaveProgress(c.Root(), ProgressSave{}, func(err error) { got = err })
	pump(t, c, func() bool { return got != nil })

	var te *TransportError
	require.ErrorAs(t, got, &te)
	assert.ErrorIs(t, got, context.DeadlineExceeded)
}

func TestStartSessionIdentifier(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{"root", map[string]any{"success": true, "sessionId": "s-1"}, "s-1"},
		{"nested", map[string]any{"success": true, "data": map[string]any{"sessionId": "s-2"}}, "s-2"},
		{"absent", map[string]any{"success": true}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "survival", body["gameMode"])
				writeJSON(w, 200, tt.body)
			}))

			done := false
			c.StartSession(c.Root(), "survival", func(id string, err error) {
				require.NoError(t, err)
				assert.Equal(t, tt.want, id)
				done = true
			})
			pump(t, c, func() bool { return done })
		})
	}
}

func TestCheckEmail(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a+b@c.d", r.URL.Query().Get("email"))
		writeJSON(w, 200, map[string]any{"success": true, "exists": true})
	}))

	done := false
	c.CheckEmail("a+b@c.d", func(exists bool, err error) {
		require.NoError(t, err)
		assert.True(t, exists)
		done = true
	})
	pump(t, c, func() bool { return done })
}

func TestScopeCancelDropsResponse(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(w, 200, map[string]any{"success": true, "sessionId": "late"})
	}))

	ctx, cancel := c.NewScope()
	called := false
	c.StartSession(ctx, "survival", func(string, error) { called = true })
	require.Eventually(t, c.Drain, time.Second, time.Millisecond)
	cancel()
	close(release)

	pump(t, c, func() bool { return !c.IsLoading() })
	assert.False(t, called)
}

func TestGetLeaderboardPathAndDecode(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/leaderboard/survival", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		writeJSON(w, 200, map[string]any{
			"success": true,
			"data": map[string]any{
				"leaderboard": []map[string]any{
					{"rank": 1, "username": "ann", "level": 3, "score": 900, "survivalTime": 61.5, "kills": 4, "achievedAt": "2026-03-01T12:00:00Z"},
				},
				"type":         "Survival Time",
				"timeframe":    "all",
				"totalEntries": 1,
			},
		})
	}))

	var (
		got  Leaderboard
		done bool
	)
	c.GetLeaderboard(c.Root(), LeaderboardSurvival, 10, func(lb Leaderboard, err error) {
		require.NoError(t, err)
		got, done = lb, true
	})
	pump(t, c, func() bool { return done })

	require.Len(t, got.Entries, 1)
	e := got.Entries[0]
	assert.Equal(t, "ann", e.Username)
	assert.Equal(t, 61.5, e.SurvivalTime)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), e.AchievedAt.UTC())
	assert.Equal(t, "Survival Time", got.Type)
}

func TestUpgradeSkillDecode(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "point_boost", body["skillId"])
		writeJSON(w, 200, map[string]any{
			"success": true,
			"data": map[string]any{
				"skill":                map[string]any{"skillId": "point_boost", "newLevel": 2, "costPaid": 28},
				"remainingSkillPoints": 7,
			},
		})
	}))

	var (
		got  SkillUpgrade
		done bool
	)
	c.UpgradeSkill(c.Root(), "point_boost", func(u SkillUpgrade, err error) {
		require.NoError(t, err)
		got, done = u, true
	})
	pump(t, c, func() bool { return done })
	assert.Equal(t, SkillUpgrade{SkillID: "point_boost", NewLevel: 2, CostPaid: 28, RemainingSkillPoints: 7}, got)
}

func TestMeWithoutUserIsParseError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]any{"success": true, "data": map[string]any{}})
	}))
	var (
		err  error
		done bool
	)
	c.Me(c.Root(), func(_ User, e error) { err, done = e, true })
	pump(t, c, func() bool { return done })
	var pe *ParseError
	assert.True(t, errors.As(err, &pe))
}
