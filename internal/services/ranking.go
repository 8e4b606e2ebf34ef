package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/skip2/go-qrcode"

	"github.com/abrezinsky/lottorank/internal/errors"
	"github.com/abrezinsky/lottorank/internal/logger"
	"github.com/abrezinsky/lottorank/internal/models"
	"github.com/abrezinsky/lottorank/internal/repository"
	"github.com/abrezinsky/lottorank/internal/strategy"
)

// Weights applied to the current and up to three prior weekly scores
var scoreWeights = [...]float64{0.40, 0.30, 0.20, 0.10}

// TopCount is the size of the published top list
const TopCount = 3

// RankingServiceRepository defines the repository methods needed by RankingService
type RankingServiceRepository interface {
	repository.ResultRepository
	repository.RankingRepository
}

// RankingOptions configures the ranking engine
type RankingOptions struct {
	BaseURL string // used for share links when the base_url setting is empty
}

// RankingService computes and serves the per-draw strategy leaderboard
type RankingService struct {
	log         logger.Logger
	repo        RankingServiceRepository
	settings    SettingsServicer
	registry    *strategy.Registry
	opts        RankingOptions
	recorder    Recorder
	broadcaster Broadcaster

	computeMu sync.Mutex
}

// NewRankingService creates a new RankingService
func NewRankingService(log logger.Logger, repo RankingServiceRepository, settings SettingsServicer, registry *strategy.Registry, opts RankingOptions) *RankingService {
	return &RankingService{
		log:      log.With("component", "ranking"),
		repo:     repo,
		settings: settings,
		registry: registry,
		opts:     opts,
		recorder: noopRecorder{},
	}
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (s *RankingService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetRecorder sets the metrics recorder
func (s *RankingService) SetRecorder(r Recorder) {
	if r == nil {
		r = noopRecorder{}
	}
	s.recorder = r
}

// RankingMove describes one strategy's change in position
type RankingMove struct {
	StrategyKey  string `json:"strategy_key"`
	RankPosition int    `json:"rank_position"`
	PreviousRank int    `json:"previous_rank"`
	RankChange   int    `json:"rank_change"`
}

// RankingSummary is the headline view of the latest leaderboard
type RankingSummary struct {
	DrawNumber      int                    `json:"draw_number"`
	TotalStrategies int                    `json:"total_strategies"`
	Top             []models.WeeklyRanking `json:"top"`
	BiggestRise     *RankingMove           `json:"biggest_rise,omitempty"`
	BiggestDrop     *RankingMove           `json:"biggest_drop,omitempty"`
}

// RankingPublished is the payload of ranking_published messages
type RankingPublished struct {
	DrawNumber int      `json:"draw_number"`
	Strategies int      `json:"strategies"`
	Top        []string `json:"top"`
}

// WeeklyScore weights each winning tier of a result
func WeeklyScore(r models.SimulationResult) float64 {
	return float64(r.Rank1Count*1000 + r.Rank2Count*500 + r.Rank3Count*100 + r.Rank4Count*10 + r.Rank5Count)
}

// WeightedScore blends current with prior scores (most recent first, at most
// three used). The sum is normalized by the weights actually applied.
func WeightedScore(current float64, prior []float64) float64 {
	sum := current * scoreWeights[0]
	weights := scoreWeights[0]
	for i, p := range prior {
		if i+1 >= len(scoreWeights) {
			break
		}
		sum += p * scoreWeights[i+1]
		weights += scoreWeights[i+1]
	}
	return sum / weights
}

// Compute publishes the leaderboard for drawNumber. An existing leaderboard
// is returned unchanged.
func (s *RankingService) Compute(ctx context.Context, drawNumber int) ([]models.WeeklyRanking, error) {
	s.computeMu.Lock()
	defer s.computeMu.Unlock()

	exists, err := s.repo.RankingsExist(ctx, drawNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		s.recorder.RankingReused(drawNumber)
		s.log.Debug("Rankings already published", "draw", drawNumber)
		return s.repo.ListRankingsByDraw(ctx, drawNumber)
	}

	results, err := s.repo.ListResultsByDraw(ctx, drawNumber)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]models.SimulationResult, len(results))
	for _, r := range results {
		byKey[r.StrategyKey] = r
	}

	rankings := make([]models.WeeklyRanking, 0, len(results))
	for _, key := range s.registry.Keys() {
		r, ok := byKey[key]
		if !ok {
			continue
		}
		score := WeeklyScore(r)
		prior, err := s.priorScores(ctx, key, drawNumber)
		if err != nil {
			return nil, err
		}
		rankings = append(rankings, models.WeeklyRanking{
			DrawNumber:     drawNumber,
			StrategyKey:    key,
			WeeklyScore:    score,
			WeightedScore:  WeightedScore(score, prior),
			Rank1Count:     r.Rank1Count,
			Rank2Count:     r.Rank2Count,
			Rank3Count:     r.Rank3Count,
			Rank4Count:     r.Rank4Count,
			Rank5Count:     r.Rank5Count,
			TotalWins:      r.TotalWins(),
			TotalTickets:   r.TotalTickets,
			EstimatedPrize: r.EstimatedPrize,
		})
	}
	if len(rankings) == 0 {
		s.log.Warn("No simulation results to rank", "draw", drawNumber)
		return rankings, nil
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].WeightedScore > rankings[j].WeightedScore
	})
	for i := range rankings {
		rankings[i].RankPosition = i + 1
		prev, found, err := s.repo.RankAt(ctx, rankings[i].StrategyKey, drawNumber-1)
		if err != nil {
			return nil, err
		}
		if found {
			p := prev
			rankings[i].PreviousRank = &p
			rankings[i].RankChange = prev - rankings[i].RankPosition
		}
	}

	if err := s.repo.SaveRankings(ctx, rankings); err != nil {
		return nil, err
	}
	s.recorder.RankingComputed(drawNumber)
	s.broadcast(models.MsgRankingPublished, RankingPublished{
		DrawNumber: drawNumber,
		Strategies: len(rankings),
		Top:        topKeys(rankings, TopCount),
	})
	s.log.Info("Rankings published", "draw", drawNumber, "strategies", len(rankings), "leader", rankings[0].StrategyKey)

	// Re-read so callers see stored IDs and timestamps
	return s.repo.ListRankingsByDraw(ctx, drawNumber)
}

func (s *RankingService) priorScores(ctx context.Context, key string, drawNumber int) ([]float64, error) {
	rows, err := s.repo.RecentRankings(ctx, key, drawNumber, len(scoreWeights)-1)
	if err != nil {
		return nil, err
	}
	prior := make([]float64, len(rows))
	for i, r := range rows {
		prior[i] = r.WeeklyScore
	}
	return prior, nil
}

// Current returns the most recently published leaderboard, or an empty slice
func (s *RankingService) Current(ctx context.Context) ([]models.WeeklyRanking, error) {
	n, found, err := s.repo.LatestRankedDraw(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return []models.WeeklyRanking{}, nil
	}
	return s.repo.ListRankingsByDraw(ctx, n)
}

// ByDraw returns the leaderboard of one draw
func (s *RankingService) ByDraw(ctx context.Context, drawNumber int) ([]models.WeeklyRanking, error) {
	rankings, err := s.repo.ListRankingsByDraw(ctx, drawNumber)
	if err != nil {
		return nil, err
	}
	if len(rankings) == 0 {
		return nil, errors.NotFoundf("no rankings for draw %d", drawNumber)
	}
	return rankings, nil
}

// Top returns the first limit rows of a draw's leaderboard
func (s *RankingService) Top(ctx context.Context, drawNumber, limit int) ([]models.WeeklyRanking, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	rankings, err := s.ByDraw(ctx, drawNumber)
	if err != nil {
		return nil, err
	}
	if len(rankings) > limit {
		rankings = rankings[:limit]
	}
	return rankings, nil
}

// History returns a strategy's positions across draws, most recent first
func (s *RankingService) History(ctx context.Context, strategyKey string) ([]models.WeeklyRanking, error) {
	return s.repo.ListRankingsByStrategy(ctx, strings.ToUpper(strings.TrimSpace(strategyKey)))
}

// TopKeys returns the keys of the first n strategies on the current leaderboard
func (s *RankingService) TopKeys(ctx context.Context, n int) ([]string, error) {
	rankings, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return topKeys(rankings, n), nil
}

// IsTop reports whether a strategy is in the current top list
func (s *RankingService) IsTop(ctx context.Context, strategyKey string) (bool, error) {
	keys, err := s.TopKeys(ctx, TopCount)
	if err != nil {
		return false, err
	}
	want := strings.ToUpper(strings.TrimSpace(strategyKey))
	for _, k := range keys {
		if k == want {
			return true, nil
		}
	}
	return false, nil
}

// Summary returns the headline view of the current leaderboard
func (s *RankingService) Summary(ctx context.Context) (*RankingSummary, error) {
	n, found, err := s.repo.LatestRankedDraw(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NotFound("no rankings published")
	}
	rankings, err := s.repo.ListRankingsByDraw(ctx, n)
	if err != nil {
		return nil, err
	}

	summary := &RankingSummary{
		DrawNumber:      n,
		TotalStrategies: len(rankings),
		Top:             rankings[:min(TopCount, len(rankings))],
	}
	var rise, drop *models.WeeklyRanking
	for i := range rankings {
		r := &rankings[i]
		if r.PreviousRank == nil {
			continue
		}
		if rise == nil || r.RankChange > rise.RankChange {
			rise = r
		}
		if drop == nil || r.RankChange < drop.RankChange {
			drop = r
		}
	}
	if rise != nil && rise.RankChange > 0 {
		summary.BiggestRise = moveOf(rise)
	}
	if drop != nil && drop.RankChange < 0 {
		summary.BiggestDrop = moveOf(drop)
	}
	return summary, nil
}

// Backfill publishes leaderboards for every draw in [from, to] in ascending
// order and returns how many draws have a leaderboard afterwards.
func (s *RankingService) Backfill(ctx context.Context, from, to int) (int, error) {
	if from <= 0 || from > to {
		return 0, ErrInvalidDrawRange
	}
	ranked := 0
	for n := from; n <= to; n++ {
		if err := ctx.Err(); err != nil {
			return ranked, err
		}
		rankings, err := s.Compute(ctx, n)
		if err != nil {
			return ranked, fmt.Errorf("rank draw %d: %w", n, err)
		}
		if len(rankings) > 0 {
			ranked++
		}
	}
	s.log.Info("Ranking backfill finished", "from", from, "to", to, "ranked", ranked)
	return ranked, nil
}

// ShareQR returns a PNG QR code linking to a draw's leaderboard
func (s *RankingService) ShareQR(ctx context.Context, drawNumber int) ([]byte, error) {
	if _, err := s.ByDraw(ctx, drawNumber); err != nil {
		return nil, err
	}
	baseURL, err := s.settings.GetBaseURL(ctx)
	if err != nil {
		return nil, err
	}
	if baseURL == "" {
		baseURL = s.opts.BaseURL
	}
	if baseURL == "" {
		return nil, errors.Unavailable("base_url not configured")
	}
	url := fmt.Sprintf("%s/api/rankings/draw/%d", strings.TrimSuffix(baseURL, "/"), drawNumber)
	return qrcode.Encode(url, qrcode.Medium, 256)
}

func (s *RankingService) broadcast(msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMessage(msgType, payload)
	}
}

func topKeys(rankings []models.WeeklyRanking, n int) []string {
	keys := make([]string, 0, n)
	for i := 0; i < len(rankings) && i < n; i++ {
		keys = append(keys, rankings[i].StrategyKey)
	}
	return keys
}

func moveOf(r *models.WeeklyRanking) *RankingMove {
	return &RankingMove{
		StrategyKey:  r.StrategyKey,
		RankPosition: r.RankPosition,
		PreviousRank: *r.PreviousRank,
		RankChange:   r.RankChange,
	}
}
