package api

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/bytedance/sonic"

	"kanban-api/domain"
)

// resolveActor normalizes the loosely-typed "user" field of an event
// payload: a bare string is a display name, an object is a structured
// identity, anything else is anonymous. Pure function, no lookups.
func resolveActor(raw json.RawMessage) domain.Actor {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return domain.Anonymous()
	}
	switch trimmed[0] {
	case '"':
		var name string
		if err := sonic.ConfigStd.Unmarshal(trimmed, &name); err != nil {
			return domain.Anonymous()
		}
		return domain.Named(strings.TrimSpace(name))
	case '{':
		var obj struct {
			ID       string `json:"id"`
			Username string `json:"username"`
			Email    string `json:"email"`
		}
		if err := sonic.ConfigStd.Unmarshal(trimmed, &obj); err != nil {
			return domain.Anonymous()
		}
		return domain.Authenticated(obj.ID, obj.Username, obj.Email)
	}
	return domain.Anonymous()
}

// actorFromPayload extracts and resolves the optional "user" field of an
// event payload.
func actorFromPayload(data json.RawMessage) domain.Actor {
	if len(data) == 0 {
		return domain.Anonymous()
	}
	var uf struct {
		User json.RawMessage `json:"user"`
	}
	if err := sonic.ConfigStd.Unmarshal(data, &uf); err != nil {
		return domain.Anonymous()
	}
	return resolveActor(uf.User)
}
