package api

import (
	"cmp"
	"encoding/json"
	"errors"
)

// Envelope is the backend's response wrapper.
type Envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// User is the account record returned by auth endpoints.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	SteamID     string `json:"steamId,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	AuthMethod  string `json:"authMethod"`
	Level       int    `json:"level"`
	Experience  int    `json:"experience"`
	SkillPoints int    `json:"skillPoints"`
	Coins       int    `json:"coins"`
}

// userWire accepts both camelCase and snake_case member names and tells
// absent numbers apart so defaults can apply.
type userWire struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	SteamID          string `json:"steamId"`
	SteamIDSnake     string `json:"steam_id"`
	Avatar           string `json:"avatar"`
	AuthMethod       string `json:"authMethod"`
	AuthMethodSnake  string `json:"auth_method"`
	Level            *int   `json:"level"`
	Experience       int    `json:"experience"`
	SkillPoints      *int   `json:"skillPoints"`
	SkillPointsSnake int    `json:"skill_points"`
	Coins            *int   `json:"coins"`
}

func (w *userWire) user() User {
	u := User{
		ID:          w.ID,
		Username:    w.Username,
		Email:       w.Email,
		SteamID:     cmp.Or(w.SteamID, w.SteamIDSnake),
		Avatar:      w.Avatar,
		AuthMethod:  cmp.Or(w.AuthMethod, w.AuthMethodSnake),
		Level:       1,
		Experience:  w.Experience,
		SkillPoints: w.SkillPointsSnake,
		Coins:       50,
	}
	if w.Level != nil {
		u.Level = *w.Level
	}
	if w.SkillPoints != nil {
		u.SkillPoints = *w.SkillPoints
	}
	if w.Coins != nil {
		u.Coins = *w.Coins
	}
	return u
}

// AuthResult is a successful authentication.
type AuthResult struct {
	Token string
	User  User
}

// Progress is the account-wide progress returned by GET /api/game/progress.
type Progress struct {
	Username          string `json:"username"`
	Level             int    `json:"level"`
	Experience        int    `json:"experience"`
	LeaderboardPoints int    `json:"leaderboard_points"`
	SkillPoints       int    `json:"skill_points"`
	Coins             int    `json:"coins"`
	BestScore         int    `json:"best_score"`
	TotalGames        int    `json:"total_games"`
}

// transportErr returns the response error unless it is an HTTP status
// error, which callers refine with the body first.
func transportErr(resp Response) error {
	if resp.Err == nil {
		return nil
	}
	var hs *HTTPStatusError
	if errors.As(resp.Err, &hs) {
		return nil
	}
	return resp.Err
}

// DecodeEnvelope validates resp and returns its envelope.
func DecodeEnvelope(resp Response) (*Envelope, error) {
	if err := transportErr(resp); err != nil {
		return nil, err
	}
	var env Envelope
	if err := json.Unmarshal(resp.Data, &env); err != nil {
		if resp.Err != nil {
			return nil, resp.Err
		}
		return nil, &ParseError{What: "response envelope", Err: err}
	}
	if resp.Err != nil {
		return &env, resp.Err
	}
	if !env.Success {
		return &env, &RejectedError{Message: env.Error}
	}
	return &env, nil
}

// DecodeData decodes the envelope's data member into out.
func DecodeData(resp Response, out any) error {
	env, err := DecodeEnvelope(resp)
	if err != nil {
		return err
	}
	if len(env.Data) == 0 {
		return &ParseError{What: "response data", Err: errors.New("missing data")}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &ParseError{What: "response data", Err: err}
	}
	return nil
}

// DecodeAuth reads token and user from an auth response. Both may sit at
// the root or nested under data.
func DecodeAuth(resp Response) (AuthResult, error) {
	if err := transportErr(resp); err != nil {
		return AuthResult{}, err
	}
	type nested struct {
		Token string    `json:"token"`
		User  *userWire `json:"user"`
	}
	var root struct {
		Success bool      `json:"success"`
		Error   string    `json:"error"`
		Token   string    `json:"token"`
		User    *userWire `json:"user"`
		Data    *nested   `json:"data"`
	}
	if err := json.Unmarshal(resp.Data, &root); err != nil {
		if resp.Err != nil {
			return AuthResult{}, resp.Err
		}
		return AuthResult{}, &ParseError{What: "auth response", Err: err}
	}
	if resp.Err != nil {
		return AuthResult{}, resp.Err
	}
	if !root.Success {
		return AuthResult{}, &RejectedError{Message: root.Error}
	}
	token, user := root.Token, root.User
	if root.Data != nil {
		if token == "" {
			token = root.Data.Token
		}
		if user == nil {
			user = root.Data.User
		}
	}
	if token == "" {
		return AuthResult{}, &ParseError{What: "auth response", Err: errors.New("missing token")}
	}
	res := AuthResult{Token: token}
	if user != nil {
		res.User = user.user()
	} else {
		res.User = (&userWire{}).user()
	}
	return res, nil
}

// DecodeSessionStart returns the session identifier, "" when the server
// acknowledged without one.
func DecodeSessionStart(resp Response) (string, error) {
	env, err := DecodeEnvelope(resp)
	if err != nil {
		return "", err
	}
	var root struct {
		SessionID *string `json:"sessionId"`
	}
	if err := json.Unmarshal(resp.Data, &root); err != nil {
		return "", &ParseError{What: "session start", Err: err}
	}
	if root.SessionID != nil {
		return *root.SessionID, nil
	}
	if len(env.Data) > 0 {
		var data struct {
			SessionID string `json:"sessionId"`
		}
		if err := json.Unmarshal(env.Data, &data); err == nil {
			return data.SessionID, nil
		}
	}
	return "", nil
}
