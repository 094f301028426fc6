package services

import (
	"context"
	"sort"
	"sync"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/live"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/models"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/repositories"
)

// In-memory repository fakes shared by the service tests. They honor
// the same sentinel errors as the Postgres implementations.

type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type recordingHub struct {
	mu       sync.Mutex
	messages []live.Message
}

func (h *recordingHub) BroadcastToRoom(roomID string, message interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if msg, ok := message.(live.Message); ok {
		h.messages = append(h.messages, msg)
	}
}

func (h *recordingHub) typesSent() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	types := make([]string, 0, len(h.messages))
	for _, msg := range h.messages {
		types = append(types, msg.Type)
	}
	return types
}

type memPodRepo struct {
	pods   []*models.Pod
	nextID int
}

func (r *memPodRepo) Create(ctx context.Context, exec repositories.SQLExecutor, pod *models.Pod) error {
	for _, existing := range r.pods {
		if existing.TournamentID != pod.TournamentID {
			continue
		}
		if pod.UserID != nil && existing.UserID != nil && *existing.UserID == *pod.UserID {
			return repositories.ErrPodAlreadyRegistered
		}
		if pod.ContactEmail != "" && existing.ContactEmail == pod.ContactEmail {
			return repositories.ErrPodAlreadyRegistered
		}
	}
	r.nextID++
	pod.ID = r.nextID
	pod.Seed = len(r.pods) + 1
	r.pods = append(r.pods, pod)
	return nil
}

func (r *memPodRepo) GetByID(ctx context.Context, id int) (*models.Pod, error) {
	for _, pod := range r.pods {
		if pod.ID == id {
			return pod, nil
		}
	}
	return nil, repositories.ErrPodNotFound
}

func (r *memPodRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.Pod, error) {
	pods := make([]*models.Pod, 0, len(r.pods))
	for _, pod := range r.pods {
		if pod.TournamentID == tournamentID {
			pods = append(pods, pod)
		}
	}
	sort.Slice(pods, func(i, j int) bool { return pods[i].Seed < pods[j].Seed })
	return pods, nil
}

func (r *memPodRepo) CountByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	pods, _ := r.ListByTournament(ctx, exec, tournamentID)
	return len(pods), nil
}

func (r *memPodRepo) ExistsByUser(ctx context.Context, exec repositories.SQLExecutor, tournamentID, userID int) (bool, error) {
	for _, pod := range r.pods {
		if pod.TournamentID == tournamentID && pod.UserID != nil && *pod.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memPodRepo) ExistsByEmail(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, email string) (bool, error) {
	for _, pod := range r.pods {
		if pod.TournamentID == tournamentID && pod.ContactEmail == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memPodRepo) UpdateName(ctx context.Context, id int, name string) error {
	pod, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	pod.Name = name
	return nil
}

type memTournamentRepo struct {
	tournaments map[int]*models.Tournament
	nextID      int
}

func newMemTournamentRepo() *memTournamentRepo {
	return &memTournamentRepo{tournaments: make(map[int]*models.Tournament)}
}

func (r *memTournamentRepo) Create(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament) error {
	r.nextID++
	tournament.ID = r.nextID
	r.tournaments[tournament.ID] = tournament
	return nil
}

func (r *memTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return tournament, nil
}

func (r *memTournamentRepo) List(ctx context.Context) ([]*models.Tournament, error) {
	list := make([]*models.Tournament, 0, len(r.tournaments))
	for _, tournament := range r.tournaments {
		list = append(list, tournament)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *memTournamentRepo) Update(ctx context.Context, tournament *models.Tournament) error {
	if _, ok := r.tournaments[tournament.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	r.tournaments[tournament.ID] = tournament
	return nil
}

func (r *memTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	tournament, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	tournament.Status = status
	return nil
}

func (r *memTournamentRepo) UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error {
	tournament, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	tournament.BannerKey = bannerKey
	return nil
}

func (r *memTournamentRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

type memStandingRepo struct {
	rows map[int]*models.PoolStanding // keyed by pod id
}

func newMemStandingRepo() *memStandingRepo {
	return &memStandingRepo{rows: make(map[int]*models.PoolStanding)}
}

func (r *memStandingRepo) ApplyResult(ctx context.Context, exec repositories.SQLExecutor, tournamentID, podID int, won bool, pointsFor, pointsAgainst int) error {
	row, ok := r.rows[podID]
	if !ok {
		row = &models.PoolStanding{TournamentID: tournamentID, PodID: podID}
		r.rows[podID] = row
	}
	if won {
		row.Wins++
	} else {
		row.Losses++
	}
	row.PointsFor += pointsFor
	row.PointsAgainst += pointsAgainst
	return nil
}

func (r *memStandingRepo) GetByPod(ctx context.Context, exec repositories.SQLExecutor, tournamentID, podID int) (*models.PoolStanding, error) {
	row, ok := r.rows[podID]
	if !ok {
		return nil, repositories.ErrStandingNotFound
	}
	return row, nil
}

func (r *memStandingRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.PoolStanding, error) {
	list := make([]*models.PoolStanding, 0, len(r.rows))
	for _, row := range r.rows {
		if row.TournamentID == tournamentID {
			list = append(list, row)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].PodID < list[j].PodID })
	return list, nil
}

func (r *memStandingRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	for podID, row := range r.rows {
		if row.TournamentID == tournamentID {
			delete(r.rows, podID)
		}
	}
	return nil
}

type memPoolMatchRepo struct {
	matches []*models.PoolMatch
	nextID  int
}

func (r *memPoolMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.PoolMatch) error {
	for _, existing := range r.matches {
		if existing.TournamentID == match.TournamentID && existing.GameNumber == match.GameNumber {
			return repositories.ErrPoolMatchNumberConflict
		}
	}
	r.nextID++
	match.ID = r.nextID
	r.matches = append(r.matches, match)
	return nil
}

func (r *memPoolMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.PoolMatch, error) {
	for _, match := range r.matches {
		if match.ID == id {
			return match, nil
		}
	}
	return nil, repositories.ErrPoolMatchNotFound
}

func (r *memPoolMatchRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.PoolMatch, error) {
	matches := make([]*models.PoolMatch, 0, len(r.matches))
	for _, match := range r.matches {
		if match.TournamentID == tournamentID {
			matches = append(matches, match)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].GameNumber < matches[j].GameNumber })
	return matches, nil
}

func (r *memPoolMatchRepo) NextPending(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (*models.PoolMatch, error) {
	matches, _ := r.ListByTournament(ctx, tournamentID)
	for _, match := range matches {
		if match.Status == models.MatchStatusPending {
			return match, nil
		}
	}
	return nil, repositories.ErrPoolMatchNotFound
}

func (r *memPoolMatchRepo) AnyInProgress(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (bool, error) {
	for _, match := range r.matches {
		if match.TournamentID == tournamentID && match.Status == models.MatchStatusInProgress {
			return true, nil
		}
	}
	return false, nil
}

func (r *memPoolMatchRepo) CountByStatus(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, status models.MatchStatus) (int, error) {
	count := 0
	for _, match := range r.matches {
		if match.TournamentID == tournamentID && match.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *memPoolMatchRepo) UpdateScore(ctx context.Context, exec repositories.SQLExecutor, id, teamAScore, teamBScore int) error {
	match, err := r.GetByID(ctx, exec, id)
	if err != nil {
		return err
	}
	match.TeamAScore = teamAScore
	match.TeamBScore = teamBScore
	return nil
}

func (r *memPoolMatchRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.MatchStatus) error {
	match, err := r.GetByID(ctx, exec, id)
	if err != nil {
		return err
	}
	match.Status = status
	return nil
}

type memBracketTeamRepo struct {
	teams  []*models.BracketTeam
	nextID int
}

func (r *memBracketTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.BracketTeam) error {
	r.nextID++
	team.ID = r.nextID
	r.teams = append(r.teams, team)
	return nil
}

func (r *memBracketTeamRepo) GetByID(ctx context.Context, id int) (*models.BracketTeam, error) {
	for _, team := range r.teams {
		if team.ID == id {
			return team, nil
		}
	}
	return nil, repositories.ErrBracketTeamNotFound
}

func (r *memBracketTeamRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.BracketTeam, error) {
	teams := make([]*models.BracketTeam, 0, len(r.teams))
	for _, team := range r.teams {
		if team.TournamentID == tournamentID {
			teams = append(teams, team)
		}
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].SeedRank < teams[j].SeedRank })
	return teams, nil
}

func (r *memBracketTeamRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	kept := r.teams[:0]
	for _, team := range r.teams {
		if team.TournamentID != tournamentID {
			kept = append(kept, team)
		}
	}
	r.teams = kept
	return nil
}

type memBracketMatchRepo struct {
	matches []*models.BracketMatch
	nextID  int
}

func (r *memBracketMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.BracketMatch) error {
	for _, existing := range r.matches {
		if existing.TournamentID == match.TournamentID && existing.GameNumber == match.GameNumber {
			return repositories.ErrBracketMatchNumberConflict
		}
	}
	r.nextID++
	match.ID = r.nextID
	r.matches = append(r.matches, match)
	return nil
}

func (r *memBracketMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.BracketMatch, error) {
	for _, match := range r.matches {
		if match.ID == id {
			return match, nil
		}
	}
	return nil, repositories.ErrBracketMatchNotFound
}

func (r *memBracketMatchRepo) GetByGameNumber(ctx context.Context, exec repositories.SQLExecutor, tournamentID, gameNumber int) (*models.BracketMatch, error) {
	for _, match := range r.matches {
		if match.TournamentID == tournamentID && match.GameNumber == gameNumber {
			return match, nil
		}
	}
	return nil, repositories.ErrBracketMatchNotFound
}

func (r *memBracketMatchRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.BracketMatch, error) {
	matches := make([]*models.BracketMatch, 0, len(r.matches))
	for _, match := range r.matches {
		if match.TournamentID == tournamentID {
			matches = append(matches, match)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].GameNumber < matches[j].GameNumber })
	return matches, nil
}

func (r *memBracketMatchRepo) NextPending(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (*models.BracketMatch, error) {
	matches, _ := r.ListByTournament(ctx, exec, tournamentID)
	for _, match := range matches {
		if match.Status == models.MatchStatusPending && match.TeamAID != nil && match.TeamBID != nil {
			return match, nil
		}
	}
	return nil, repositories.ErrBracketMatchNotFound
}

func (r *memBracketMatchRepo) AnyInProgress(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (bool, error) {
	for _, match := range r.matches {
		if match.TournamentID == tournamentID && match.Status == models.MatchStatusInProgress {
			return true, nil
		}
	}
	return false, nil
}

func (r *memBracketMatchRepo) SetTeamSlot(ctx context.Context, exec repositories.SQLExecutor, tournamentID, gameNumber, slot, teamID int) error {
	match, err := r.GetByGameNumber(ctx, exec, tournamentID, gameNumber)
	if err != nil {
		return err
	}
	id := teamID
	if slot == 1 {
		match.TeamAID = &id
	} else {
		match.TeamBID = &id
	}
	return nil
}

func (r *memBracketMatchRepo) UpdateScore(ctx context.Context, exec repositories.SQLExecutor, id, teamAScore, teamBScore int) error {
	match, err := r.GetByID(ctx, exec, id)
	if err != nil {
		return err
	}
	match.TeamAScore = teamAScore
	match.TeamBScore = teamBScore
	return nil
}

func (r *memBracketMatchRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.MatchStatus) error {
	match, err := r.GetByID(ctx, exec, id)
	if err != nil {
		return err
	}
	match.Status = status
	return nil
}

func (r *memBracketMatchRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	kept := r.matches[:0]
	for _, match := range r.matches {
		if match.TournamentID != tournamentID {
			kept = append(kept, match)
		}
	}
	r.matches = kept
	return nil
}
