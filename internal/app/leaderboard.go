package app

import (
	"sort"
	"time"

	"livequiz-service/internal/domain"
)

// tallyScores derives each player's total from the ledger: the sum of
// point values of their correct entries for questions at or below
// closedThrough. Recomputing from scratch keeps a retried advance from
// double-awarding.
func tallyScores(quiz domain.Quiz, entries []domain.Response, closedThrough int) map[string]int {
	scores := make(map[string]int)
	for _, entry := range entries {
		if entry.QuestionIndex > closedThrough || !entry.Correct {
			continue
		}
		if entry.QuestionIndex < 0 || entry.QuestionIndex >= len(quiz.Questions) {
			continue
		}
		scores[entry.PlayerID] += quiz.Questions[entry.QuestionIndex].PointsOrDefault()
	}
	return scores
}

// rankPlayers builds the leaderboard snapshot: descending score, ties
// broken by join order (session.Players is kept in join order).
func rankPlayers(session *domain.Session, now time.Time) domain.Leaderboard {
	order := make([]int, len(session.Players))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := session.Players[order[a]], session.Players[order[b]]
		if pa.Score != pb.Score {
			return pa.Score > pb.Score
		}
		return order[a] < order[b]
	})

	entries := make([]domain.LeaderboardEntry, len(order))
	for rank, idx := range order {
		player := session.Players[idx]
		entries[rank] = domain.LeaderboardEntry{
			PlayerID: player.ID,
			Name:     player.Name,
			Score:    player.Score,
			Rank:     rank + 1,
		}
	}
	return domain.Leaderboard{
		SessionID: session.ID,
		Entries:   entries,
		UpdatedAt: now,
	}
}

// lobbySnapshot is the waiting-room view, in join order rather than rank.
func lobbySnapshot(session *domain.Session) []domain.LobbyEntry {
	entries := make([]domain.LobbyEntry, len(session.Players))
	for i, player := range session.Players {
		entries[i] = domain.LobbyEntry{Name: player.Name, Score: player.Score}
	}
	return entries
}
