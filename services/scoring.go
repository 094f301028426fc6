package services

import "fmt"

// ScoreRules are the terminal-score rules shared by pool and bracket
// games: play to EndPoints, win by two, hard cap at Cap.
type ScoreRules struct {
	EndPoints int
	WinByTwo  bool
	Cap       int
}

// DefaultScoreRules matches standard rally scoring: 21 points, win by
// two, capped at 25.
func DefaultScoreRules() ScoreRules {
	return ScoreRules{EndPoints: 21, WinByTwo: true, Cap: 25}
}

// ValidateFinalScore reports whether a score pair is a valid terminal
// state. A game is over when the leader has reached EndPoints with the
// required margin, or has hit the cap regardless of margin. Tied scores
// are never terminal.
func ValidateFinalScore(teamAScore, teamBScore int, rules ScoreRules) error {
	if teamAScore < 0 || teamBScore < 0 {
		return fmt.Errorf("%w: got %d-%d", ErrInvalidScore, teamAScore, teamBScore)
	}
	if teamAScore == teamBScore {
		return fmt.Errorf("%w: %d-%d", ErrTiedScore, teamAScore, teamBScore)
	}

	high, low := teamAScore, teamBScore
	if teamBScore > teamAScore {
		high, low = teamBScore, teamAScore
	}

	if high >= rules.Cap {
		return nil
	}
	if high >= rules.EndPoints && (!rules.WinByTwo || high-low >= 2) {
		return nil
	}
	return fmt.Errorf("%w: %d-%d (to %d, win by two, cap %d)",
		ErrScoreNotTerminal, teamAScore, teamBScore, rules.EndPoints, rules.Cap)
}
