// internal/stats/stats.go
//
// Player statistics and the ranked leaderboard.
// Responsibilities:
//   - Fold finished games into a player's aggregate record.
//   - Maintain the leaderboard ordering: wins desc, best streak desc,
//     average attempts asc.

package stats

import "sort"

// LeaderboardSize caps how many entries a leaderboard read returns.
const LeaderboardSize = 100

// PlayerStats is a player's lifetime aggregate across daily games.
type PlayerStats struct {
	TotalGames      int     `json:"totalGames"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	CurrentStreak   int     `json:"currentStreak"`
	BestStreak      int     `json:"bestStreak"`
	AverageAttempts float64 `json:"averageAttempts"`
}

// ApplyResult folds one finished game into the aggregate. A loss
// contributes the full attempt allowance to the running average and
// resets the current streak.
func (p *PlayerStats) ApplyResult(won bool, attempts int) {
	prevTotal := p.TotalGames
	p.TotalGames++
	if won {
		p.Wins++
		p.CurrentStreak++
		if p.CurrentStreak > p.BestStreak {
			p.BestStreak = p.CurrentStreak
		}
	} else {
		p.Losses++
		p.CurrentStreak = 0
	}
	// Running mean over all games, wins and losses alike.
	p.AverageAttempts = (p.AverageAttempts*float64(prevTotal) + float64(attempts)) / float64(p.TotalGames)
}

// Entry is one leaderboard row. Username is resolved at read time and
// never persisted alongside the ranking data.
type Entry struct {
	PlayerID        string  `json:"playerId"`
	Username        string  `json:"username,omitempty"`
	Wins            int     `json:"wins"`
	BestStreak      int     `json:"bestStreak"`
	AverageAttempts float64 `json:"averageAttempts"`
}

// Leaderboard is the full ranked list, best first.
type Leaderboard []Entry

// Less reports whether entry a ranks strictly ahead of entry b.
func less(a, b Entry) bool {
	if a.Wins != b.Wins {
		return a.Wins > b.Wins
	}
	if a.BestStreak != b.BestStreak {
		return a.BestStreak > b.BestStreak
	}
	return a.AverageAttempts < b.AverageAttempts
}

// Upsert replaces the player's entry (or inserts a new one) and
// restores the ranking order.
func (l Leaderboard) Upsert(e Entry) Leaderboard {
	out := make(Leaderboard, 0, len(l)+1)
	for _, cur := range l {
		if cur.PlayerID != e.PlayerID {
			out = append(out, cur)
		}
	}
	out = append(out, e)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Top returns the first n entries, or the whole board if shorter.
func (l Leaderboard) Top(n int) Leaderboard {
	if n < 0 || n > len(l) {
		n = len(l)
	}
	out := make(Leaderboard, n)
	copy(out, l[:n])
	return out
}
