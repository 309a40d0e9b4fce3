// Package roster defines players, positions and the roster size rules that
// drive team generation.
package roster

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Roster size bounds accepted by the engine.
const (
	MinPlayers = 12
	MaxPlayers = 15
	NumTeams   = 3
)

// Position is a player's role on the pitch.
type Position uint8

// Positions in display order.
const (
	Defense Position = iota
	Midfield
	Attack
	NumPositions = 3
)

var positionLetters = [NumPositions]string{"D", "M", "A"} //nolint:gochecknoglobals // fixed lookup

// String returns the single-letter code.
func (p Position) String() string {
	if int(p) < NumPositions {
		return positionLetters[p]
	}
	return fmt.Sprintf("Position(%d)", uint8(p))
}

// DefaultPosition is assumed for players recorded without a position.
const DefaultPosition = Midfield

// ParsePosition parses D, M or A (case-insensitive). An empty string is the
// DefaultPosition.
func ParsePosition(s string) (Position, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return DefaultPosition, nil
	case "D":
		return Defense, nil
	case "M":
		return Midfield, nil
	case "A":
		return Attack, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
}

// MarshalText encodes the position as its letter.
func (p Position) MarshalText() ([]byte, error) {
	if int(p) >= NumPositions {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPosition, uint8(p))
	}
	return []byte(positionLetters[p]), nil
}

// UnmarshalText decodes a position letter.
func (p *Position) UnmarshalText(b []byte) error {
	v, err := ParsePosition(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Player is a scored roster entry. Names are for display and need not be unique.
type Player struct {
	Name      string   `json:"name"`
	Defense   float64  `json:"defense"`
	Attack    float64  `json:"attack"`
	Playmaker float64  `json:"playmaker"`
	Position  Position `json:"position"`
}

// UnmarshalJSON decodes a player, defaulting a missing position to
// DefaultPosition and a missing playmaker score to zero.
func (p *Player) UnmarshalJSON(b []byte) error {
	type plain Player
	v := plain{Position: DefaultPosition}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Player(v)
	return nil
}

// Validate checks the per-player field constraints. The engine itself only
// enforces roster length; callers that ingest untrusted input use this.
func (p Player) Validate() error {
	switch {
	case p.Defense < 0:
		return fmt.Errorf("%w: %q defense %v", ErrNegativeScore, p.Name, p.Defense)
	case p.Attack < 0:
		return fmt.Errorf("%w: %q attack %v", ErrNegativeScore, p.Name, p.Attack)
	case p.Playmaker < 0:
		return fmt.Errorf("%w: %q playmaker %v", ErrNegativeScore, p.Name, p.Playmaker)
	case int(p.Position) >= NumPositions:
		return fmt.Errorf("%w: %q", ErrInvalidPosition, p.Name)
	}
	return nil
}

// TeamSizes holds the size of each of the three teams.
type TeamSizes [NumTeams]int

// Total returns the number of players the sizes account for.
func (s TeamSizes) Total() int { return s[0] + s[1] + s[2] }

var sizeTable = map[int]TeamSizes{ //nolint:gochecknoglobals // fixed lookup
	12: {4, 4, 4},
	13: {5, 4, 4},
	14: {5, 5, 4},
	15: {5, 5, 5},
}

// SizesFor returns the team sizes for a roster of n players.
func SizesFor(n int) (TeamSizes, error) {
	s, ok := sizeTable[n]
	if !ok {
		return TeamSizes{}, &InvalidRosterSizeError{Count: n, Min: MinPlayers, Max: MaxPlayers}
	}
	return s, nil
}

// ValidateSize reports an *InvalidRosterSizeError when players is outside the
// accepted range.
func ValidateSize(players []Player) error {
	_, err := SizesFor(len(players))
	return err
}
