package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the token pair persisted between taskctl invocations.
type Session struct {
	TokenPair
}

// defaultSessionPath resolves the token file under the user's home directory.
func defaultSessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".taskctl.json"), nil
}

// LoadSession reads the persisted session. path may be empty to use the
// default location.
func LoadSession(path string) (*Session, error) {
	if path == "" {
		var err error
		path, err = defaultSessionPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("not logged in, run 'taskctl login' first")
		}
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("corrupt session file %s: %w", path, err)
	}
	return &s, nil
}

// SaveSession writes the session with owner-only permissions.
func SaveSession(path string, s *Session) error {
	if path == "" {
		var err error
		path, err = defaultSessionPath()
		if err != nil {
			return err
		}
	}

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Subject extracts the user id claim from the stored access token without
// verifying the signature. The server re-verifies everything; this is only
// used to address user-scoped endpoints locally.
func (s *Session) Subject() (int64, string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, claims); err != nil {
		return 0, "", fmt.Errorf("malformed access token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, "", err
	}

	var id int64
	if _, err := fmt.Sscanf(sub, "%d", &id); err != nil {
		return 0, "", fmt.Errorf("unexpected subject %q", sub)
	}

	email, _ := claims["email"].(string)
	return id, email, nil
}
