package session

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/amiecorso/top4/internal/game"
	"github.com/amiecorso/top4/internal/lock"
	"github.com/amiecorso/top4/internal/store"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(store.NewMemoryStore(), lock.NewKeyedMutex())
}

func createRoom(t *testing.T, m *Manager, maxRounds, pct int) *game.Room {
	t.Helper()
	room, err := m.CreateRoom(context.Background(), CreateRoomParams{
		HostName:            "Ada",
		MaxRounds:           maxRounds,
		NewPromptPercentage: pct,
	})
	if err != nil {
		t.Fatalf("create room failed: %v", err)
	}
	return room
}

func joinPlayers(t *testing.T, m *Manager, roomID string, names ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(names))
	for _, name := range names {
		player, err := m.JoinRoom(context.Background(), roomID, name)
		if err != nil {
			t.Fatalf("join %s failed: %v", name, err)
		}
		ids = append(ids, player.ID)
	}
	return ids
}

func startPlaying(t *testing.T, m *Manager, roomID string) *game.Room {
	t.Helper()
	ok, err := m.StartGame(context.Background(), roomID)
	if err != nil || !ok {
		t.Fatalf("start failed: ok=%t err=%v", ok, err)
	}
	room, found := m.GetRoom(context.Background(), roomID)
	if !found {
		t.Fatal("room missing after start")
	}
	return room
}

func TestCreateRoom(t *testing.T) {
	m := newTestManager(t)
	room := createRoom(t, m, 5, 0)
	if room.Status != game.StatusWaiting {
		t.Fatalf("expected waiting, got %s", room.Status)
	}
	if len(room.Code) != 4 {
		t.Fatalf("expected 4-letter code, got %q", room.Code)
	}
	if len(room.Players) != 1 || room.Host != room.Players[0].ID {
		t.Fatalf("expected host as sole player: %+v", room.Players)
	}
	if _, ok := m.GetRoomByCode(context.Background(), room.Code); !ok {
		t.Fatal("expected lookup by code to succeed")
	}
}

func TestCreateRoomValidation(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	if _, err := m.CreateRoom(ctx, CreateRoomParams{HostName: "  ", MaxRounds: 5}); err == nil {
		t.Fatal("expected error for blank host name")
	}
	if _, err := m.CreateRoom(ctx, CreateRoomParams{HostName: "Ada", MaxRounds: 0}); err == nil {
		t.Fatal("expected error for zero rounds")
	}
	if _, err := m.CreateRoom(ctx, CreateRoomParams{HostName: "Ada", MaxRounds: 31}); err == nil {
		t.Fatal("expected error for too many rounds")
	}
	if _, err := m.CreateRoom(ctx, CreateRoomParams{HostName: "Ada", MaxRounds: 5, NewPromptPercentage: 101}); err == nil {
		t.Fatal("expected error for percentage out of range")
	}
	if _, err := m.CreateRoom(ctx, CreateRoomParams{HostName: "Ada", MaxRounds: 5, Categories: []string{"bogus"}}); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestJoinRoom(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	room := createRoom(t, m, 5, 0)

	if _, err := m.JoinRoom(ctx, "missing", "Bob"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
	if _, err := m.JoinRoom(ctx, room.ID, "ada"); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected case-insensitive name rejection, got %v", err)
	}
	player, err := m.JoinRoom(ctx, room.ID, "Bob")
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if player.Score != 0 || !player.IsConnected {
		t.Fatalf("unexpected player state: %+v", player)
	}

	startPlaying(t, m, room.ID)
	if _, err := m.JoinRoom(ctx, room.ID, "Carol"); !errors.Is(err, ErrRoomStarted) {
		t.Fatalf("expected ErrRoomStarted after start, got %v", err)
	}
}

func TestStartGameRequiresTwoPlayers(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	room := createRoom(t, m, 5, 0)
	if ok, err := m.StartGame(ctx, room.ID); err != nil || ok {
		t.Fatalf("expected false for single player, got ok=%t err=%v", ok, err)
	}
	if ok, err := m.StartGame(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected false for absent room, got ok=%t err=%v", ok, err)
	}
}

func TestStartGameCreatesFirstRound(t *testing.T) {
	m := newTestManager(t)
	room := createRoom(t, m, 5, 0)
	joinPlayers(t, m, room.ID, "Bob")
	updated := startPlaying(t, m, room.ID)

	if updated.Status != game.StatusPlaying || updated.CurrentRound != 1 {
		t.Fatalf("expected playing round 1, got %s round %d", updated.Status, updated.CurrentRound)
	}
	round := updated.CurrentRoundState()
	if round == nil {
		t.Fatal("expected round 1 to exist")
	}
	if round.CurrentPlayer != updated.Players[0].ID {
		t.Fatal("expected the first player to own round 1")
	}
	if len(round.Ideas) != game.IdeasPerRound {
		t.Fatalf("expected %d ideas, got %d", game.IdeasPerRound, len(round.Ideas))
	}
	if len(updated.UsedIdeas) != game.IdeasPerRound {
		t.Fatalf("expected used ideas tracked, got %d", len(updated.UsedIdeas))
	}
	// Starting twice is a no-op.
	if ok, err := m.StartGame(context.Background(), room.ID); err != nil || ok {
		t.Fatalf("expected second start to report false, got ok=%t err=%v", ok, err)
	}
}

func TestRoundRobinTurnOrder(t *testing.T) {
	m := newTestManager(t)
	room := createRoom(t, m, 6, 0)
	joinPlayers(t, m, room.ID, "Bob", "Carol")
	updated := startPlaying(t, m, room.ID)
	playerIDs := updated.PlayerIDs()

	ctx := context.Background()
	for i := 1; i < 6; i++ {
		if ok, err := m.AdvanceToNextRound(ctx, room.ID); err != nil || !ok {
			t.Fatalf("advance %d failed: ok=%t err=%v", i, ok, err)
		}
	}
	final, _ := m.GetRoom(ctx, room.ID)
	if len(final.Rounds) != 6 {
		t.Fatalf("expected 6 rounds, got %d", len(final.Rounds))
	}
	for i, round := range final.Rounds {
		want := playerIDs[i%len(playerIDs)]
		if round.CurrentPlayer != want {
			t.Fatalf("round %d: expected owner %s, got %s", i+1, want, round.CurrentPlayer)
		}
	}
}

func TestSubmitRankingIdempotentReject(t *testing.T) {
	m := newTestManager(t)
	room := createRoom(t, m, 3, 0)
	ids := joinPlayers(t, m, room.ID, "Bob")
	startPlaying(t, m, room.ID)
	ctx := context.Background()

	first := []int{1, 2, 3, 4}
	if ok, err := m.SubmitRanking(ctx, room.ID, ids[0], first); err != nil || !ok {
		t.Fatalf("first submit failed: ok=%t err=%v", ok, err)
	}
	if ok, err := m.SubmitRanking(ctx, room.ID, ids[0], []int{4, 3, 2, 1}); err != nil || ok {
		t.Fatalf("expected resubmit to report false, got ok=%t err=%v", ok, err)
	}
	updated, _ := m.GetRoom(ctx, room.ID)
	round := updated.CurrentRoundState()
	got := round.PlayerRankings[ids[0]]
	for i, rank := range first {
		if got[i] != rank {
			t.Fatalf("resubmit overwrote ranking: %v", got)
		}
	}
	if len(round.Committed) != 1 {
		t.Fatalf("expected one commitment, got %d", len(round.Committed))
	}
}

func TestSubmitRankingValidation(t *testing.T) {
	m := newTestManager(t)
	room := createRoom(t, m, 3, 0)
	ids := joinPlayers(t, m, room.ID, "Bob")
	updated := startPlaying(t, m, room.ID)
	ctx := context.Background()
	owner := updated.CurrentRoundState().CurrentPlayer

	// The turn owner may not submit a partial ranking.
	if _, err := m.SubmitRanking(ctx, room.ID, owner, []int{1, 0, 0, 2}); err == nil {
		t.Fatal("expected error for partial owner ranking")
	}
	// Predictors may.
	if ok, err := m.SubmitRanking(ctx, room.ID, ids[0], []int{1, 0, 0, 2}); err != nil || !ok {
		t.Fatalf("expected partial prediction accepted, got ok=%t err=%v", ok, err)
	}
	// Unknown player is a silent no-op.
	if ok, err := m.SubmitRanking(ctx, room.ID, "ghost", []int{1, 2, 3, 4}); err != nil || ok {
		t.Fatalf("expected unknown player rejected, got ok=%t err=%v", ok, err)
	}
}

func TestScoringFlow(t *testing.T) {
	m := newTestManager(t)
	room := createRoom(t, m, 3, 0)
	ids := joinPlayers(t, m, room.ID, "Bob")
	updated := startPlaying(t, m, room.ID)
	ctx := context.Background()

	owner := updated.CurrentRoundState().CurrentPlayer // the host
	guesser := ids[0]
	if owner == guesser {
		t.Fatal("expected host to own round 1")
	}
	if m.CanReveal(ctx, room.ID) {
		t.Fatal("reveal must wait for all commitments")
	}
	if _, err := m.SubmitRanking(ctx, room.ID, owner, []int{2, 1, 4, 3}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.SubmitRanking(ctx, room.ID, guesser, []int{2, 1, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if !m.CanReveal(ctx, room.ID) {
		t.Fatal("expected reveal once everyone committed")
	}

	scores, err := m.CalculateScores(ctx, room.ID)
	if err != nil {
		t.Fatalf("calculate scores failed: %v", err)
	}
	if scores[guesser] != 2 {
		t.Fatalf("expected 2 points, got %d", scores[guesser])
	}
	if scores[owner] != 0 {
		t.Fatalf("turn owner must not score, got %d", scores[owner])
	}

	after, _ := m.GetRoom(ctx, room.ID)
	player, _ := after.FindPlayer(guesser)
	if player.Score != 2 {
		t.Fatalf("expected cumulative score 2, got %d", player.Score)
	}
	if !after.CurrentRoundState().Revealed {
		t.Fatal("expected round sealed after scoring")
	}

	// A second reveal must not double-award.
	if _, err := m.CalculateScores(ctx, room.ID); err != nil {
		t.Fatalf("second reveal errored: %v", err)
	}
	again, _ := m.GetRoom(ctx, room.ID)
	player, _ = again.FindPlayer(guesser)
	if player.Score != 2 {
		t.Fatalf("double reveal changed score to %d", player.Score)
	}
}

func TestVoidCurrentRound(t *testing.T) {
	m := newTestManager(t)
	room := createRoom(t, m, 3, 0)
	ids := joinPlayers(t, m, room.ID, "Bob")
	updated := startPlaying(t, m, room.ID)
	ctx := context.Background()
	owner := updated.CurrentRoundState().CurrentPlayer

	ok, err := m.VoidCurrentRound(ctx, room.ID)
	if err != nil || !ok {
		t.Fatalf("void failed: ok=%t err=%v", ok, err)
	}
	after, _ := m.GetRoom(ctx, room.ID)
	ownerPlayer, _ := after.FindPlayer(owner)
	if ownerPlayer.Score != -1 {
		t.Fatalf("expected -1 penalty, got %d", ownerPlayer.Score)
	}
	other, _ := after.FindPlayer(ids[0])
	if other.Score != 0 {
		t.Fatalf("guesser score must be untouched, got %d", other.Score)
	}
	round := after.CurrentRoundState()
	if !round.Revealed || !round.Voided {
		t.Fatalf("expected revealed+voided, got %+v", round)
	}
	if len(round.Scores) != 0 {
		t.Fatalf("voided round must not award scores: %v", round.Scores)
	}
	// Voiding a sealed round is a no-op.
	if ok, err := m.VoidCurrentRound(ctx, room.ID); err != nil || ok {
		t.Fatalf("expected second void to report false, got ok=%t err=%v", ok, err)
	}
}

func TestAdvanceFinishesGame(t *testing.T) {
	m := newTestManager(t)
	room := createRoom(t, m, 1, 0)
	joinPlayers(t, m, room.ID, "Bob")
	startPlaying(t, m, room.ID)
	ctx := context.Background()

	ok, err := m.AdvanceToNextRound(ctx, room.ID)
	if err != nil || ok {
		t.Fatalf("expected finish, got ok=%t err=%v", ok, err)
	}
	after, _ := m.GetRoom(ctx, room.ID)
	if after.Status != game.StatusFinished {
		t.Fatalf("expected finished, got %s", after.Status)
	}
	if len(after.Rounds) != 1 {
		t.Fatalf("no round may be appended on finish, got %d", len(after.Rounds))
	}
	if ok, err := m.AdvanceToNextRound(ctx, room.ID); err != nil || ok {
		t.Fatalf("expected no-op on finished room, got ok=%t err=%v", ok, err)
	}
}

func TestPromptSubmissionFlow(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	room := createRoom(t, m, 2, 100) // 8 prompts total, all player-written
	ids := joinPlayers(t, m, room.ID, "Bob")

	ok, err := m.StartGame(ctx, room.ID)
	if err != nil || !ok {
		t.Fatalf("start failed: ok=%t err=%v", ok, err)
	}
	updated, _ := m.GetRoom(ctx, room.ID)
	if updated.Status != game.StatusPromptSubmission {
		t.Fatalf("expected prompt_submission, got %s", updated.Status)
	}
	if updated.RequiredPromptsPerPlayer != 4 {
		t.Fatalf("expected quota of 4, got %d", updated.RequiredPromptsPerPlayer)
	}

	if _, err := m.SubmitPlayerPrompt(ctx, room.ID, updated.Host, "   "); err == nil {
		t.Fatal("expected error for blank prompt")
	}
	if _, err := m.SubmitPlayerPrompt(ctx, room.ID, "ghost", "something"); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}

	for i := 0; i < 4; i++ {
		remaining, err := m.SubmitPlayerPrompt(ctx, room.ID, updated.Host, "host idea "+strconv.Itoa(i))
		if err != nil {
			t.Fatalf("host prompt %d failed: %v", i, err)
		}
		if remaining != 3-i {
			t.Fatalf("expected %d remaining, got %d", 3-i, remaining)
		}
	}
	if _, err := m.SubmitPlayerPrompt(ctx, room.ID, updated.Host, "one too many"); !errors.Is(err, ErrQuotaReached) {
		t.Fatalf("expected ErrQuotaReached, got %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := m.SubmitPlayerPrompt(ctx, room.ID, ids[0], "bob idea "+strconv.Itoa(i)); err != nil {
			t.Fatalf("bob prompt %d failed: %v", i, err)
		}
	}
	mid, _ := m.GetRoom(ctx, room.ID)
	if mid.Status != game.StatusPromptSubmission {
		t.Fatal("room must wait for the full quota")
	}

	// The final submission triggers pool build and round 1.
	if _, err := m.SubmitPlayerPrompt(ctx, room.ID, ids[0], "bob idea 3"); err != nil {
		t.Fatalf("final prompt failed: %v", err)
	}
	final, _ := m.GetRoom(ctx, room.ID)
	if final.Status != game.StatusPlaying || final.CurrentRound != 1 {
		t.Fatalf("expected playing round 1, got %s round %d", final.Status, final.CurrentRound)
	}
	if len(final.Ideas) != 8 {
		t.Fatalf("expected pool of 8 player prompts, got %d", len(final.Ideas))
	}
	if _, err := m.SubmitPlayerPrompt(ctx, room.ID, ids[0], "late"); !errors.Is(err, ErrWrongStatus) {
		t.Fatalf("expected ErrWrongStatus after start, got %v", err)
	}
}

func TestMarkPlayerReadyAdvances(t *testing.T) {
	m := newTestManager(t)
	room := createRoom(t, m, 2, 0)
	ids := joinPlayers(t, m, room.ID, "Bob")
	updated := startPlaying(t, m, room.ID)
	ctx := context.Background()
	owner := updated.CurrentRoundState().CurrentPlayer

	if _, _, err := m.MarkPlayerReady(ctx, room.ID, owner); err == nil {
		t.Fatal("expected error before reveal")
	}
	if _, err := m.SubmitRanking(ctx, room.ID, owner, []int{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.SubmitRanking(ctx, room.ID, ids[0], []int{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.CalculateScores(ctx, room.ID); err != nil {
		t.Fatal(err)
	}

	advanced, ready, err := m.MarkPlayerReady(ctx, room.ID, owner)
	if err != nil || advanced || ready != 1 {
		t.Fatalf("expected waiting state, got advanced=%t ready=%d err=%v", advanced, ready, err)
	}
	// Marking ready twice does not double-count.
	advanced, ready, err = m.MarkPlayerReady(ctx, room.ID, owner)
	if err != nil || advanced || ready != 1 {
		t.Fatalf("expected idempotent ready, got advanced=%t ready=%d err=%v", advanced, ready, err)
	}
	advanced, ready, err = m.MarkPlayerReady(ctx, room.ID, ids[0])
	if err != nil || !advanced || ready != 2 {
		t.Fatalf("expected unanimous advance, got advanced=%t ready=%d err=%v", advanced, ready, err)
	}
	after, _ := m.GetRoom(ctx, room.ID)
	if after.CurrentRound != 2 || len(after.Rounds) != 2 {
		t.Fatalf("expected round 2, got round %d with %d rounds", after.CurrentRound, len(after.Rounds))
	}
}

func TestSetRoundTimer(t *testing.T) {
	m := newTestManager(t)
	room := createRoom(t, m, 2, 0)
	joinPlayers(t, m, room.ID, "Bob")
	startPlaying(t, m, room.ID)
	ctx := context.Background()

	endMs, err := m.SetRoundTimer(ctx, room.ID, "start", 0)
	if err != nil {
		t.Fatalf("timer start failed: %v", err)
	}
	extended, err := m.SetRoundTimer(ctx, room.ID, "add", 0)
	if err != nil {
		t.Fatalf("timer add failed: %v", err)
	}
	if extended < endMs+ManualTimerIncrement.Milliseconds() {
		t.Fatalf("expected extension of at least %v, got %d -> %d", ManualTimerIncrement, endMs, extended)
	}
	if _, err := m.SetRoundTimer(ctx, room.ID, "pause", 0); err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestUpdateRoomPersists(t *testing.T) {
	m := newTestManager(t)
	room := createRoom(t, m, 3, 0)
	ctx := context.Background()

	room.MaxRounds = 7
	if err := m.UpdateRoom(ctx, room); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	after, ok := m.GetRoom(ctx, room.ID)
	if !ok || after.MaxRounds != 7 {
		t.Fatalf("expected persisted update, got %+v", after)
	}
}

func TestIdeaRecycling(t *testing.T) {
	m := newTestManager(t)
	// 15 kid-friendly catalog prompts at 0% new: pool of 15, so round 4
	// exhausts the unused set and must recycle.
	room := createRoom(t, m, 5, 0)
	joinPlayers(t, m, room.ID, "Bob")
	startPlaying(t, m, room.ID)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if ok, err := m.AdvanceToNextRound(ctx, room.ID); err != nil || !ok {
			t.Fatalf("advance failed: ok=%t err=%v", ok, err)
		}
	}
	after, _ := m.GetRoom(ctx, room.ID)
	if len(after.Rounds) != 4 {
		t.Fatalf("expected 4 rounds, got %d", len(after.Rounds))
	}
	// After recycling, the used set restarts from the fourth draw.
	if len(after.UsedIdeas) != game.IdeasPerRound {
		t.Fatalf("expected used set reset to %d, got %d", game.IdeasPerRound, len(after.UsedIdeas))
	}
	for _, round := range after.Rounds {
		if len(round.Ideas) != game.IdeasPerRound {
			t.Fatalf("every round needs %d ideas, got %d", game.IdeasPerRound, len(round.Ideas))
		}
	}
}
