// Package types contains the wire shapes shared by the HTTP API, the CLI and
// the load tester.
package types

import (
	"time"

	"github.com/okian/fairteams/internal/domain/engine"
	"github.com/okian/fairteams/internal/domain/export"
	"github.com/okian/fairteams/internal/domain/model"
	"github.com/okian/fairteams/internal/domain/roster"
	"github.com/okian/fairteams/internal/domain/stats"
)

// GenerateRequest is the body of a team generation request.
type GenerateRequest struct {
	// RequestID makes job submission idempotent when set.
	RequestID string          `json:"request_id,omitempty"`
	Players   []roster.Player `json:"players"`
}

// PlayerView is a player as shown in a team.
type PlayerView struct {
	Name      string          `json:"name"`
	Attack    float64         `json:"attack"`
	Defense   float64         `json:"defense"`
	Playmaker float64         `json:"playmaker"`
	Position  roster.Position `json:"position"`
	Star      bool            `json:"star"`
}

// TeamView is one generated team with its aggregates.
type TeamView struct {
	Players        []PlayerView       `json:"players"`
	AverageAttack  float64            `json:"average_attack"`
	AverageDefense float64            `json:"average_defense"`
	PlaymakerTotal float64            `json:"playmaker_total"`
	Positions      map[string]int     `json:"positions"`
	Display        export.TeamSummary `json:"display"`
}

// Report summarizes the search that produced a result.
type Report struct {
	Generated        int            `json:"generated"`
	Survivors        map[string]int `json:"survivors"`
	PositionBalanced int            `json:"position_balanced"`
	Pool             int            `json:"pool"`
}

// TeamsResponse is a generated partition ready for display.
type TeamsResponse struct {
	Teams            [roster.NumTeams]TeamView `json:"teams"`
	Sizes            roster.TeamSizes          `json:"sizes"`
	Diffs            stats.Diffs               `json:"diffs"`
	Display          export.Summary            `json:"display"`
	Fallback         bool                      `json:"fallback"`
	PositionBalanced bool                      `json:"position_balanced"`
	Report           Report                    `json:"report"`
	Text             string                    `json:"text"`
}

// JobResponse describes a submitted job.
type JobResponse struct {
	ID         string         `json:"id"`
	RequestID  string         `json:"request_id,omitempty"`
	Status     string         `json:"status"`
	Duplicate  bool           `json:"duplicate,omitempty"`
	Players    int            `json:"players"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Result     *TeamsResponse `json:"result,omitempty"`
}

// StatsResponse reports service counters.
type StatsResponse struct {
	QueueDepth    int   `json:"queue_depth"`
	QueueCapacity int   `json:"queue_capacity"`
	Workers       int   `json:"workers"`
	JobsStored    int   `json:"jobs_stored"`
	RequestIDs    int64 `json:"request_ids"`
}

// ErrorResponse is the body of every API error.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Count   *int   `json:"count,omitempty"`
	Min     *int   `json:"min,omitempty"`
	Max     *int   `json:"max,omitempty"`
}

// FromResult converts an engine result into its wire shape.
func FromResult(res *engine.Result) TeamsResponse {
	out := TeamsResponse{
		Sizes:            res.Sizes,
		Diffs:            res.Stats.Diffs,
		Display:          export.Display(res.Stats),
		Fallback:         res.Fallback,
		PositionBalanced: res.PositionBalanced,
		Report: Report{
			Generated:        res.Report.Generated,
			Survivors:        res.Report.Survivors,
			PositionBalanced: res.Report.PositionBalanced,
			Pool:             res.Pool,
		},
		Text: export.Text(res.Partition, res.Stats),
	}
	for t, team := range res.Partition.Teams {
		players := make([]PlayerView, len(team))
		for i, p := range team {
			players[i] = PlayerView{
				Name:      p.Name,
				Attack:    p.Attack,
				Defense:   p.Defense,
				Playmaker: p.Playmaker,
				Position:  p.Position,
				Star:      export.Starred(p),
			}
		}
		positions := make(map[string]int, roster.NumPositions)
		for pos := range roster.NumPositions {
			positions[roster.Position(pos).String()] = res.Stats.PositionCounts[pos][t]
		}
		out.Teams[t] = TeamView{
			Players:        players,
			AverageAttack:  res.Stats.AverageAttack[t],
			AverageDefense: res.Stats.AverageDefense[t],
			PlaymakerTotal: res.Stats.PlaymakerTotal[t],
			Positions:      positions,
			Display:        out.Display.Teams[t],
		}
	}
	return out
}

// FromSnapshot converts a job snapshot into its wire shape.
func FromSnapshot(s *model.Snapshot) JobResponse {
	out := JobResponse{
		ID:        s.ID,
		RequestID: s.RequestID,
		Status:    string(s.Status),
		Players:   len(s.Players),
		CreatedAt: s.CreatedAt,
	}
	if !s.StartedAt.IsZero() {
		t := s.StartedAt
		out.StartedAt = &t
	}
	if !s.FinishedAt.IsZero() {
		t := s.FinishedAt
		out.FinishedAt = &t
	}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	if s.Result != nil {
		r := FromResult(s.Result)
		out.Result = &r
	}
	return out
}
