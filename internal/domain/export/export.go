// Package export renders generated teams for people: display strings and the
// shareable plain-text summary.
package export

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/fairteams/internal/domain/partition"
	"github.com/okian/fairteams/internal/domain/roster"
	"github.com/okian/fairteams/internal/domain/stats"
)

// StarThreshold is the playmaker score above which a player is starred.
const StarThreshold = 3

const shareBase = "https://wa.me/"

// TeamSummary holds the display strings of a single team.
type TeamSummary struct {
	AverageAttack  string `json:"average_attack"`
	AverageDefense string `json:"average_defense"`
	Playmaker      string `json:"playmaker"`
}

// Summary holds display strings for every team and the diffs.
type Summary struct {
	Teams         [roster.NumTeams]TeamSummary `json:"teams"`
	DiffAttack    string                       `json:"diff_attack"`
	DiffDefense   string                       `json:"diff_defense"`
	DiffPlaymaker string                       `json:"diff_playmaker"`
}

// Display formats s: averages with two decimals, attack/defense diffs with
// three and playmaker values as integers.
func Display(s stats.Stats) Summary {
	var out Summary
	for t := range roster.NumTeams {
		out.Teams[t] = TeamSummary{
			AverageAttack:  fixed(s.AverageAttack[t], 2),
			AverageDefense: fixed(s.AverageDefense[t], 2),
			Playmaker:      fixed(s.PlaymakerTotal[t], 0),
		}
	}
	out.DiffAttack = fixed(s.Diffs.Attack, 3)
	out.DiffDefense = fixed(s.Diffs.Defense, 3)
	out.DiffPlaymaker = fixed(s.Diffs.Playmaker, 0)
	return out
}

// Starred reports whether p gets the playmaker star.
func Starred(p roster.Player) bool { return p.Playmaker > StarThreshold }

// WriteText writes the plain-text export of p and s to w.
func WriteText(w io.Writer, p partition.Partition, s stats.Stats) error {
	d := Display(s)
	var b strings.Builder
	b.WriteString("Teams\n\n")
	for t, team := range p.Teams {
		fmt.Fprintf(&b, "Team %d:\n", t+1)
		for _, pl := range team {
			star := ""
			if Starred(pl) {
				star = " ★"
			}
			fmt.Fprintf(&b, "  - %s (%s)%s - attack: %s, defense: %s\n",
				pl.Name, pl.Position, star, number(pl.Attack), number(pl.Defense))
		}
		fmt.Fprintf(&b, "  average attack: %s, average defense: %s\n\n",
			d.Teams[t].AverageAttack, d.Teams[t].AverageDefense)
	}
	fmt.Fprintf(&b, "Diffs: attack %s | defense %s | playmaker %s\n",
		d.DiffAttack, d.DiffDefense, d.DiffPlaymaker)

	_, err := io.WriteString(w, b.String())
	return err
}

// Text returns the plain-text export as a string.
func Text(p partition.Partition, s stats.Stats) string {
	var b strings.Builder
	_ = WriteText(&b, p, s)
	return b.String()
}

// ShareURL returns a messaging share link carrying the text export.
func ShareURL(p partition.Partition, s stats.Stats) string {
	return ShareLink(Text(p, s))
}

// ShareLink returns a messaging share link carrying text. Spaces are sent
// as %20, not +.
func ShareLink(text string) string {
	return shareBase + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

func fixed(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// number prints a score the way it was entered: 7 stays 7, 7.5 stays 7.5.
func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
