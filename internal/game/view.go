package game

import (
	"sort"
	"time"

	"github.com/DoyleJ11/pokeguess-backend/internal/engine"
	"github.com/DoyleJ11/pokeguess-backend/pkg/types"
)

// BuildView renders s for viewer at now. Only the viewer's own unresolved
// target is described, and only through hints and the censored description.
func BuildView(s engine.Session, viewer string, now time.Time) types.SessionView {
	v := types.SessionView{
		ID:        s.ID,
		JoinCode:  s.JoinCode,
		Status:    string(s.Status),
		Mode:      string(s.Mode),
		Solo:      s.Solo,
		Version:   s.Version,
		CreatedAt: s.CreatedAt,
	}

	for _, p := range s.Players {
		if p.PlayerID == "" {
			continue
		}
		remaining, _ := engine.RemainingTime(s, p.PlayerID, now)
		pv := types.PlayerView{
			PlayerID:      p.PlayerID,
			Score:         p.Score,
			CurrentRound:  min(p.CurrentIndex+1, len(p.Targets)),
			TotalRounds:   len(p.Targets),
			AttemptsLeft:  engine.MaxAttempts - p.AttemptsUsed,
			TimeRemaining: remaining,
			Finished:      p.Finished(),
			Rounds:        make([]types.RoundView, 0, len(p.Completed)),
		}
		for _, r := range p.Completed {
			pv.Rounds = append(pv.Rounds, types.RoundView{
				PokedexNumber: r.Creature.PokedexNumber,
				Name:          r.Creature.NameFr,
				Sprite:        r.Creature.Sprites.FrontDefault,
				Guessed:       r.Guessed,
				TimedOut:      r.TimedOut,
				Attempts:      r.Attempts,
				Hints:         hintNames(r.Hints),
				Points:        r.Points,
			})
		}
		if p.PlayerID == viewer && s.Status == engine.StatusInProgress {
			if target, ok := p.Current(); ok {
				pv.Current = &types.TargetView{
					Description: target.CensoredDescription(),
					Revealed:    engine.Reveal(target, p.UsedHints),
					Hints:       hintOptions(s.Rules, p.UsedHints),
				}
			}
		}
		v.Players = append(v.Players, pv)
	}
	return v
}

func hintNames(kinds []engine.HintKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

func hintOptions(rules engine.Rules, used []engine.HintKind) []types.HintOption {
	table := rules.Hints
	if len(table) == 0 {
		table = engine.DefaultHints
	}
	isUsed := make(map[engine.HintKind]bool, len(used))
	for _, k := range used {
		isUsed[k] = true
	}

	out := make([]types.HintOption, 0, len(table))
	for k, c := range table {
		out = append(out, types.HintOption{Kind: string(k), Points: c.Points, Penalty: c.Penalty, Used: isUsed[k]})
	}
	// cheapest first, then by name, so the order is stable
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points < out[j].Points
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

func toGuessResult(r engine.GuessResult, view types.SessionView) types.GuessResult {
	return types.GuessResult{
		IsCorrect:      r.IsCorrect,
		IsTurnFinished: r.IsTurnFinished,
		IsGameFinished: r.IsGameFinished,
		IsTimeout:      r.IsTimeout,
		Message:        r.Message,
		PointsEarned:   r.PointsEarned,
		Session:        view,
	}
}
