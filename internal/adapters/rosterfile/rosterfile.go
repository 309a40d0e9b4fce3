// Package rosterfile loads player rosters from YAML or JSON files.
//
// A roster file holds a top-level players list:
//
//	players:
//	  - name: Dana
//	    attack: 7
//	    defense: 6.5
//	    playmaker: 4
//	    position: A
//
// playmaker defaults to 0 and position to M when omitted.
package rosterfile

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/fairteams/internal/domain/roster"
)

// Sentinel errors.
var (
	ErrRead        = errors.New("read roster file")
	ErrNoPlayers   = errors.New("roster file has no players")
	ErrInvalidFile = errors.New("invalid roster file")
)

const playersKey = "players"

// Load reads and validates the roster at path. Size is not checked here so
// callers can report it with the engine's error.
func Load(path string) ([]roster.Player, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRead, path, err)
	}
	return decode(k)
}

// Parse decodes roster bytes in the same format as Load.
func Parse(b []byte) ([]roster.Player, error) {
	raw, err := yaml.Parser().Unmarshal(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	k := koanf.New(".")
	if err := k.Load(rawProvider(raw), nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	return decode(k)
}

// decode routes the players list through the JSON decoder so files get the
// same defaults as API requests.
func decode(k *koanf.Koanf) ([]roster.Player, error) {
	if !k.Exists(playersKey) {
		return nil, ErrNoPlayers
	}
	b, err := json.Marshal(k.Get(playersKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	var players []roster.Player
	if err := json.Unmarshal(b, &players); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	if len(players) == 0 {
		return nil, ErrNoPlayers
	}
	for i := range players {
		if err := players[i].Validate(); err != nil {
			return nil, fmt.Errorf("player %d: %w", i+1, err)
		}
	}
	return players, nil
}

// rawProvider adapts an already parsed map to koanf.Provider.
type rawProvider map[string]any

func (r rawProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("rawProvider does not support ReadBytes")
}

func (r rawProvider) Read() (map[string]any, error) { return r, nil }
