package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"idctl/internal/session"
)

// Version describes one API version advertised by the identity service root
// document.
type Version struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []struct {
		Rel  string `json:"rel"`
		Href string `json:"href"`
	} `json:"links"`
}

type versionsDocument struct {
	Versions struct {
		Values []Version `json:"values"`
	} `json:"versions"`
}

// Discover queries the identity service root for its advertised API
// versions. It requires no authentication and therefore works on a session
// with no plugin at all. Deployments that answer the root document with 300
// Multiple Choices still carry the versions body, so that status is treated
// as success.
func Discover(ctx context.Context, sess *session.Session, authURL string) ([]Version, error) {
	var out versionsDocument
	if err := sess.GetJSON(ctx, strings.TrimRight(authURL, "/")+"/", &out); err != nil {
		var statusErr *session.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusMultipleChoices {
			if jsonErr := json.Unmarshal([]byte(statusErr.Body), &out); jsonErr == nil {
				return out.Versions.Values, nil
			}
		}
		return nil, err
	}
	return out.Versions.Values, nil
}
