// Package settings reads and updates the hooks section of a Claude settings.json
// file while leaving every other key untouched.
package settings

import (
	"encoding/json"
	"os"

	"github.com/thoreinstein/plugkit/internal/errors"
	"github.com/thoreinstein/plugkit/pkg/fileutil"
)

// HookCommand is one command run for a matched event.
type HookCommand struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`

	unknownFields map[string]json.RawMessage
}

// MarshalJSON implements json.Marshaler to include unknown fields in output.
func (h HookCommand) MarshalJSON() ([]byte, error) {
	type plain HookCommand
	return marshalWithUnknown(plain(h), h.unknownFields)
}

// UnmarshalJSON implements json.Unmarshaler to capture unknown fields.
func (h *HookCommand) UnmarshalJSON(data []byte) error {
	type plain HookCommand
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	unknown, err := extraFields(data, "type", "command", "timeout")
	if err != nil {
		return err
	}
	*h = HookCommand(p)
	h.unknownFields = unknown
	return nil
}

// MatcherGroup binds a tool-name matcher to the commands it runs.
// Matcher is empty for events that are not tool scoped.
type MatcherGroup struct {
	Matcher string        `json:"matcher,omitempty"`
	Hooks   []HookCommand `json:"hooks"`

	unknownFields map[string]json.RawMessage
}

// MarshalJSON implements json.Marshaler to include unknown fields in output.
func (g MatcherGroup) MarshalJSON() ([]byte, error) {
	type plain MatcherGroup
	return marshalWithUnknown(plain(g), g.unknownFields)
}

// UnmarshalJSON implements json.Unmarshaler to capture unknown fields.
func (g *MatcherGroup) UnmarshalJSON(data []byte) error {
	type plain MatcherGroup
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	unknown, err := extraFields(data, "matcher", "hooks")
	if err != nil {
		return err
	}
	*g = MatcherGroup(p)
	g.unknownFields = unknown
	return nil
}

// marshalWithUnknown encodes v and adds the unknown keys it does not set.
func marshalWithUnknown(v any, unknown map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(unknown) == 0 {
		return data, err
	}

	var result map[string]json.RawMessage
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	for k, raw := range unknown {
		if _, ok := result[k]; !ok {
			result[k] = raw
		}
	}
	return json.Marshal(result)
}

// extraFields returns the keys of the JSON object in data that are not
// listed in known, or nil when there are none.
func extraFields(data []byte, known ...string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(raw, k)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// Settings is the root of settings.json. Only the hooks key is modelled.
type Settings struct {
	Hooks map[string][]MatcherGroup `json:"hooks,omitempty"`

	// unknownFields keeps permissions, env, model and anything added later.
	unknownFields map[string]json.RawMessage
}

// MarshalJSON implements json.Marshaler to include unknown fields in output.
func (s *Settings) MarshalJSON() ([]byte, error) {
	result := make(map[string]json.RawMessage, len(s.unknownFields)+1)
	for k, v := range s.unknownFields {
		result[k] = v
	}

	if len(s.Hooks) > 0 {
		hooks, err := json.Marshal(s.Hooks)
		if err != nil {
			return nil, err
		}
		result["hooks"] = hooks
	}

	return json.Marshal(result)
}

// UnmarshalJSON implements json.Unmarshaler to capture unknown fields.
func (s *Settings) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if hooksData, ok := raw["hooks"]; ok {
		if err := json.Unmarshal(hooksData, &s.Hooks); err != nil {
			return errors.Wrap(err, "parsing hooks")
		}
		delete(raw, "hooks")
	}

	if len(raw) > 0 {
		s.unknownFields = raw
	}
	return nil
}

// Load reads settings from path. A missing file yields empty settings.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{Hooks: make(map[string][]MatcherGroup)}, nil
		}
		return nil, errors.Wrap(err, "reading settings")
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if s.Hooks == nil {
		s.Hooks = make(map[string][]MatcherGroup)
	}
	return &s, nil
}

// Save writes settings to path atomically.
func Save(path string, s *Settings) error {
	return errors.Wrap(fileutil.AtomicWriteJSON(path, s), "writing settings")
}

// Has reports whether command is already registered for event, under any matcher.
func (s *Settings) Has(event, command string) bool {
	for _, g := range s.Hooks[event] {
		for _, h := range g.Hooks {
			if h.Command == command {
				return true
			}
		}
	}
	return false
}

// AddHook registers cmd for event under matcher. It returns false, leaving
// the settings unchanged, when the command is already registered for event.
func (s *Settings) AddHook(event, matcher string, cmd HookCommand) bool {
	if s.Has(event, cmd.Command) {
		return false
	}
	if cmd.Type == "" {
		cmd.Type = "command"
	}
	if s.Hooks == nil {
		s.Hooks = make(map[string][]MatcherGroup)
	}

	groups := s.Hooks[event]
	for i := range groups {
		if groups[i].Matcher == matcher {
			groups[i].Hooks = append(groups[i].Hooks, cmd)
			return true
		}
	}
	s.Hooks[event] = append(groups, MatcherGroup{Matcher: matcher, Hooks: []HookCommand{cmd}})
	return true
}

// RemoveHook unregisters command from event and drops groups left empty.
// It returns whether anything was removed.
func (s *Settings) RemoveHook(event, command string) bool {
	removed := false
	var kept []MatcherGroup
	for _, g := range s.Hooks[event] {
		hooks := g.Hooks[:0:0]
		for _, h := range g.Hooks {
			if h.Command == command {
				removed = true
				continue
			}
			hooks = append(hooks, h)
		}
		if len(hooks) > 0 {
			g.Hooks = hooks
			kept = append(kept, g)
		}
	}

	if len(kept) == 0 {
		delete(s.Hooks, event)
	} else {
		s.Hooks[event] = kept
	}
	return removed
}
