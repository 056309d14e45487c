package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/alitto/pond/v2"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/leaguevault/leaguevault/common/clients"
	"github.com/leaguevault/leaguevault/common/logger"
	"github.com/leaguevault/leaguevault/common/models"
)

// Ledger store slices the label engine reads through

type rosterReader interface {
	ListByLeagueIDs(ctx context.Context, leagueIDs []string) ([]models.Roster, error)
}

type userReader interface {
	GetByIDs(ctx context.Context, userIDs []string) (map[string]models.User, error)
}

type playerReader interface {
	GetByIDs(ctx context.Context, playerIDs []string) (map[string]models.Player, error)
}

// DraftAPI is the slice of the host API used for drafted-player enrichment
type DraftAPI interface {
	LeagueDrafts(ctx context.Context, leagueID string) ([]clients.Draft, error)
	DraftPicks(ctx context.Context, draftID string) ([]clients.DraftPick, error)
}

// LabelService turns ledger rows into display view-models. It is stateless
// per request: every call works from the chain snapshot it is given, loads
// reference data in batched id-set lookups, and degrades to synthetic labels
// instead of failing a page.
type LabelService struct {
	rosters rosterReader
	users   userReader
	players playerReader
	api     DraftAPI
	pool    pond.Pool
	log     *logger.Logger
}

// NewLabelService creates a new label service
func NewLabelService(rosters rosterReader, users userReader, players playerReader, api DraftAPI, pool pond.Pool, log *logger.Logger) *LabelService {
	return &LabelService{
		rosters: rosters,
		users:   users,
		players: players,
		api:     api,
		pool:    pool,
		log:     log,
	}
}

// rosterKey identifies a roster within one league-season. Roster identity is
// always the full triple; the numeric id alone is meaningless across seasons.
type rosterKey struct {
	leagueID string
	rosterID int
}

// renderState holds the reference data loaded for one page render
type renderState struct {
	chain       Chain
	rosterOwner map[rosterKey]string
	users       map[string]models.User
	players     map[string]models.Player
	// draftPicks memoizes completed rookie-draft selections per league so a
	// page with many picks from one season fetches its draft once. Written
	// by concurrent prefetch workers.
	draftPicks *xsync.Map[string, []clients.DraftPick]
}

// Render resolves a page of transactions into view-models. The chain
// snapshot scopes every season-dependent lookup.
func (s *LabelService) Render(ctx context.Context, chain Chain, txs []models.Transaction, assets map[string][]models.TransactionAsset) ([]models.TransactionView, error) {
	state := &renderState{
		chain:       chain,
		rosterOwner: make(map[rosterKey]string),
		draftPicks:  xsync.NewMap[string, []clients.DraftPick](),
	}

	raws := make(map[string]*clients.Transaction, len(txs))
	for i := range txs {
		var raw clients.Transaction
		if err := json.Unmarshal(txs[i].RawPayload, &raw); err != nil {
			s.log.Warn("undecodable transaction payload", "transaction_id", txs[i].ID, "error", err)
			continue
		}
		raws[txs[i].ID] = &raw
	}

	leagueIDs := collectLeagueIDs(chain, txs)
	playerIDs := collectPlayerIDs(assets)

	// Independent id-set lookups run concurrently; each one is a single
	// round-trip no matter how many transactions are on the page.
	var rostersErr, playersErr error
	group := s.pool.NewGroupContext(ctx)
	group.Submit(func() {
		rostersErr = s.loadRostersAndUsers(ctx, leagueIDs, state)
	})
	group.Submit(func() {
		var players map[string]models.Player
		players, playersErr = s.players.GetByIDs(ctx, playerIDs)
		if playersErr == nil {
			state.players = players
		}
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if rostersErr != nil {
		return nil, rostersErr
	}
	if playersErr != nil {
		return nil, fmt.Errorf("load players: %w", playersErr)
	}

	// Drafted-player enrichment is best-effort: prefetch draft selections
	// for every league a resolved pick points at, swallowing failures.
	s.prefetchDrafts(ctx, state, txs, assets)
	s.loadDraftedPlayers(ctx, state, txs, assets)

	views := make([]models.TransactionView, 0, len(txs))
	for i := range txs {
		views = append(views, s.renderTransaction(&txs[i], raws[txs[i].ID], assets[txs[i].ID], state))
	}

	return views, nil
}

// LabelTeams resolves the team facets of a filtered corpus in one pass,
// loading the chain's rosters and users once. Unresolvable entries keep the
// synthetic label.
func (s *LabelService) LabelTeams(ctx context.Context, chain Chain, facets []models.TeamFacet) []models.TeamFacet {
	if len(facets) == 0 {
		return facets
	}

	state := &renderState{
		chain:       chain,
		rosterOwner: make(map[rosterKey]string),
	}
	if err := s.loadRostersAndUsers(ctx, chain.LeagueIDs(), state); err != nil {
		s.log.Warn("team facet labels unavailable", "facets", len(facets), "error", err)
		for i := range facets {
			facets[i].Team = syntheticLabel(facets[i].RosterID)
		}
		return facets
	}

	for i := range facets {
		facets[i].Team = state.teamLabel(facets[i].Season, facets[i].RosterID)
	}
	return facets
}

func (s *LabelService) loadRostersAndUsers(ctx context.Context, leagueIDs []string, state *renderState) error {
	rosters, err := s.rosters.ListByLeagueIDs(ctx, leagueIDs)
	if err != nil {
		return fmt.Errorf("load rosters: %w", err)
	}

	ownerIDs := make([]string, 0, len(rosters))
	seen := make(map[string]bool)
	for _, ro := range rosters {
		if ro.OwnerID == nil {
			continue
		}
		state.rosterOwner[rosterKey{leagueID: ro.LeagueID, rosterID: ro.RosterID}] = *ro.OwnerID
		if !seen[*ro.OwnerID] {
			seen[*ro.OwnerID] = true
			ownerIDs = append(ownerIDs, *ro.OwnerID)
		}
	}

	users, err := s.users.GetByIDs(ctx, ownerIDs)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	state.users = users
	return nil
}

// teamLabel resolves (season, rosterID) to an owner display name. Labels are
// always season-scoped; the fallback is a synthetic "Roster N".
func (st *renderState) teamLabel(season, rosterID int) string {
	leagueID, ok := st.chain.LeagueForSeason(season)
	if !ok {
		return syntheticLabel(rosterID)
	}

	ownerID, ok := st.rosterOwner[rosterKey{leagueID: leagueID, rosterID: rosterID}]
	if !ok {
		return syntheticLabel(rosterID)
	}

	user, ok := st.users[ownerID]
	if !ok {
		return syntheticLabel(rosterID)
	}
	if user.DisplayName != nil && *user.DisplayName != "" {
		return *user.DisplayName
	}
	if user.Username != nil && *user.Username != "" {
		return *user.Username
	}
	return syntheticLabel(rosterID)
}

func syntheticLabel(rosterID int) string {
	return fmt.Sprintf("Roster %d", rosterID)
}

func isSynthetic(label string, rosterID int) bool {
	return label == syntheticLabel(rosterID)
}

func (s *LabelService) renderTransaction(tx *models.Transaction, raw *clients.Transaction, assets []models.TransactionAsset, state *renderState) models.TransactionView {
	view := models.TransactionView{
		TransactionID: tx.ID,
		Season:        tx.Season,
		Week:          tx.Week,
		Type:          tx.Type,
		TypeLabel:     typeLabel(tx.Type),
		Status:        tx.Status,
		Date:          tx.CreatedAt,
	}

	if raw != nil {
		for _, rosterID := range raw.RosterIDs {
			view.Teams = append(view.Teams, state.teamLabel(tx.Season, rosterID))
		}
	}

	received := make(map[int]*models.TeamMoves)
	sent := make(map[int]*models.TeamMoves)
	added := make(map[int]*models.TeamMoves)
	dropped := make(map[int]*models.TeamMoves)

	for _, asset := range assets {
		item, ok := s.renderAsset(tx, raw, asset, state)
		if !ok {
			continue
		}

		from := asset.FromRosterID
		to := asset.ToRosterID

		switch {
		case from != nil && to != nil && *from != *to:
			appendMove(received, *to, tx.Season, state, item)
			appendMove(sent, *from, tx.Season, state, item)
		case to != nil && from == nil:
			appendMove(added, *to, tx.Season, state, item)
		case from != nil && to == nil:
			appendMove(dropped, *from, tx.Season, state, item)
		}
	}

	view.Received = sortedMoves(received)
	view.Sent = sortedMoves(sent)
	view.Added = sortedMoves(added)
	view.Dropped = sortedMoves(dropped)

	return view
}

// renderAsset labels one asset movement. The bool is false for movements
// that render as annotations instead of items (an unattached FAAB amount).
func (s *LabelService) renderAsset(tx *models.Transaction, raw *clients.Transaction, asset models.TransactionAsset, state *renderState) (models.MoveItem, bool) {
	switch asset.Kind {
	case models.AssetPlayer:
		item := models.MoveItem{
			Kind:     models.AssetPlayer,
			PlayerID: asset.PlayerID,
			Label:    s.playerLabel(asset.PlayerID, state),
		}
		// A winning waiver bid annotates the claimed player
		if tx.Type == models.TransactionWaiver && asset.ToRosterID != nil && asset.FromRosterID == nil {
			if raw != nil && raw.Settings != nil && raw.Settings.WaiverBid > 0 {
				bid := raw.Settings.WaiverBid
				item.FAAB = &bid
			}
		}
		return item, true

	case models.AssetPick:
		return models.MoveItem{
			Kind:  models.AssetPick,
			Label: s.pickLabel(tx, raw, asset, state),
		}, true

	case models.AssetFAAB:
		if asset.FromRosterID == nil && asset.ToRosterID == nil {
			// Already surfaced as the waiver claim's FAAB annotation
			return models.MoveItem{}, false
		}
		amount := 0
		if asset.FAABAmount != nil {
			amount = *asset.FAABAmount
		}
		faab := amount
		return models.MoveItem{
			Kind:  models.AssetFAAB,
			Label: fmt.Sprintf("$%d FAAB", amount),
			FAAB:  &faab,
		}, true
	}

	return models.MoveItem{}, false
}

func (s *LabelService) playerLabel(playerID *string, state *renderState) string {
	if playerID == nil {
		return "Unknown player"
	}
	if p, ok := state.players[*playerID]; ok && p.FullName != "" {
		return p.FullName
	}
	return "Player " + *playerID
}

// pickLabel resolves a traded pick to "<season> R<round> (<owner> pick)".
//
// The pick's identity is (season, round, original owner). The original owner
// comes from the raw draft-pick entry that matches the movement, preferring
// the entry's explicit original-owner field over its previous-owner field.
// The league context that translates the owner id into a label is the chain
// node for the pick's season; a pick traded for a season newer than the
// chain's newest node falls back to the transaction's own season, which is
// guaranteed to exist.
func (s *LabelService) pickLabel(tx *models.Transaction, raw *clients.Transaction, asset models.TransactionAsset, state *renderState) string {
	pickSeason := 0
	pickRound := 0
	if asset.PickSeason != nil {
		pickSeason = *asset.PickSeason
	}
	if asset.PickRound != nil {
		pickRound = *asset.PickRound
	}

	originalOwner := matchOriginalOwner(raw, asset, pickSeason, pickRound)
	if originalOwner == 0 {
		s.log.Debug("unresolved pick provenance",
			"transaction_id", tx.ID,
			"pick_season", pickSeason,
			"pick_round", pickRound,
		)
		return fmt.Sprintf("%d R%d", pickSeason, pickRound)
	}

	contextSeason := pickSeason
	if _, ok := state.chain.LeagueForSeason(pickSeason); !ok || pickSeason > state.chain.NewestSeason() {
		contextSeason = tx.Season
	}

	ownerLabel := state.teamLabel(contextSeason, originalOwner)
	if isSynthetic(ownerLabel, originalOwner) && contextSeason != tx.Season {
		// One more direct lookup against the transaction's own context
		// before settling for the synthetic label
		ownerLabel = state.teamLabel(tx.Season, originalOwner)
	}

	label := fmt.Sprintf("%d R%d (%s pick)", pickSeason, pickRound, ownerLabel)

	if player := s.draftedPlayer(state, pickSeason, pickRound, originalOwner); player != "" {
		label = fmt.Sprintf("%s: %s", label, player)
	}

	return label
}

// matchOriginalOwner finds the raw draft-pick entry behind a pick movement.
// Matching is by season and round plus the movement's roster ids, falling
// back to season and round alone; a roster holding two picks in the same
// round is an accepted ambiguity. The entry's roster_id field names the
// original owner explicitly and wins over previous_owner_id.
func matchOriginalOwner(raw *clients.Transaction, asset models.TransactionAsset, pickSeason, pickRound int) int {
	if raw == nil {
		return fallbackOwner(asset)
	}

	season := strconv.Itoa(pickSeason)
	var roundOnly *clients.TransactionPick

	for i := range raw.DraftPicks {
		entry := &raw.DraftPicks[i]
		if entry.Season != season || entry.Round != pickRound {
			continue
		}
		if roundOnly == nil {
			roundOnly = entry
		}
		fromMatches := asset.FromRosterID != nil && entry.PreviousOwnerID == *asset.FromRosterID
		toMatches := asset.ToRosterID != nil && entry.OwnerID == *asset.ToRosterID
		if fromMatches || toMatches {
			return ownerFromEntry(entry)
		}
	}

	if roundOnly != nil {
		return ownerFromEntry(roundOnly)
	}
	return fallbackOwner(asset)
}

func ownerFromEntry(entry *clients.TransactionPick) int {
	if entry.RosterID != 0 {
		return entry.RosterID
	}
	return entry.PreviousOwnerID
}

func fallbackOwner(asset models.TransactionAsset) int {
	if asset.FromRosterID != nil {
		return *asset.FromRosterID
	}
	if asset.ToRosterID != nil {
		return *asset.ToRosterID
	}
	return 0
}

// prefetchDrafts loads completed draft selections for every league a
// resolved pick points at, concurrently. Failures only cost the enrichment.
func (s *LabelService) prefetchDrafts(ctx context.Context, state *renderState, txs []models.Transaction, assets map[string][]models.TransactionAsset) {
	wanted := make(map[string]bool)
	for i := range txs {
		for _, asset := range assets[txs[i].ID] {
			if asset.Kind != models.AssetPick || asset.PickSeason == nil {
				continue
			}
			if leagueID, ok := state.chain.LeagueForSeason(*asset.PickSeason); ok {
				wanted[leagueID] = true
			}
		}
	}
	if len(wanted) == 0 {
		return
	}

	group := s.pool.NewGroupContext(ctx)
	for leagueID := range wanted {
		id := leagueID
		group.Submit(func() {
			picks, err := s.fetchRookieDraftPicks(ctx, id)
			if err != nil {
				s.log.Debug("draft enrichment unavailable", "league_id", id, "error", err)
				return
			}
			state.draftPicks.Store(id, picks)
		})
	}
	_ = group.Wait()
}

// fetchRookieDraftPicks returns the completed selections of a league's
// rookie draft, preferring a draft the host marks as a rookie draft over the
// league's startup draft
func (s *LabelService) fetchRookieDraftPicks(ctx context.Context, leagueID string) ([]clients.DraftPick, error) {
	drafts, err := s.api.LeagueDrafts(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	var chosen *clients.Draft
	for i := range drafts {
		d := &drafts[i]
		if d.Status != "complete" {
			continue
		}
		if isRookieDraft(d) {
			chosen = d
			break
		}
		if chosen == nil {
			chosen = d
		}
	}
	if chosen == nil {
		return nil, nil
	}

	return s.api.DraftPicks(ctx, chosen.DraftID)
}

func isRookieDraft(d *clients.Draft) bool {
	if d.Type == "rookie" {
		return true
	}
	return d.Metadata["scoring_type"] == "rookie" || d.Metadata["type"] == "rookie"
}

// loadDraftedPlayers batches one extra player lookup for every selection the
// prefetched drafts could attach to this page's picks
func (s *LabelService) loadDraftedPlayers(ctx context.Context, state *renderState, txs []models.Transaction, assets map[string][]models.TransactionAsset) {
	ids := make(map[string]bool)
	for i := range txs {
		for _, asset := range assets[txs[i].ID] {
			if asset.Kind != models.AssetPick || asset.PickSeason == nil || asset.PickRound == nil {
				continue
			}
			leagueID, ok := state.chain.LeagueForSeason(*asset.PickSeason)
			if !ok {
				continue
			}
			picks, ok := state.draftPicks.Load(leagueID)
			if !ok {
				continue
			}
			for _, pick := range picks {
				if pick.Round == *asset.PickRound && pick.PlayerID != "" {
					ids[pick.PlayerID] = true
				}
			}
		}
	}
	if len(ids) == 0 {
		return
	}

	missing := make([]string, 0, len(ids))
	for id := range ids {
		if _, ok := state.players[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return
	}

	extra, err := s.players.GetByIDs(ctx, missing)
	if err != nil {
		s.log.Debug("drafted player lookup failed", "players", len(missing), "error", err)
		return
	}
	for id, p := range extra {
		state.players[id] = p
	}
}

// draftedPlayer finds which player the pick's original owner actually
// selected, when the pick's draft has completed
func (s *LabelService) draftedPlayer(state *renderState, pickSeason, pickRound, originalOwner int) string {
	if state.draftPicks == nil {
		return ""
	}
	leagueID, ok := state.chain.LeagueForSeason(pickSeason)
	if !ok {
		return ""
	}
	picks, ok := state.draftPicks.Load(leagueID)
	if !ok {
		return ""
	}

	for _, pick := range picks {
		if pick.Round == pickRound && pick.RosterID == originalOwner {
			if p, ok := state.players[pick.PlayerID]; ok && p.FullName != "" {
				return p.FullName
			}
			return ""
		}
	}
	return ""
}

func appendMove(buckets map[int]*models.TeamMoves, rosterID, season int, state *renderState, item models.MoveItem) {
	bucket, ok := buckets[rosterID]
	if !ok {
		bucket = &models.TeamMoves{
			RosterID: rosterID,
			Team:     state.teamLabel(season, rosterID),
		}
		buckets[rosterID] = bucket
	}
	bucket.Items = append(bucket.Items, item)
}

func sortedMoves(buckets map[int]*models.TeamMoves) []models.TeamMoves {
	if len(buckets) == 0 {
		return nil
	}
	ids := make([]int, 0, len(buckets))
	for id := range buckets {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	moves := make([]models.TeamMoves, 0, len(ids))
	for _, id := range ids {
		moves = append(moves, *buckets[id])
	}
	return moves
}

func typeLabel(txType string) string {
	switch txType {
	case models.TransactionTrade:
		return "Trade"
	case models.TransactionWaiver:
		return "Waiver Claim"
	case models.TransactionFreeAgent:
		return "Free Agent"
	case "commissioner":
		return "Commissioner"
	default:
		return txType
	}
}

func collectLeagueIDs(chain Chain, txs []models.Transaction) []string {
	seen := make(map[string]bool)
	ids := make([]string, 0, len(chain.Nodes))
	for _, node := range chain.Nodes {
		if !seen[node.LeagueID] {
			seen[node.LeagueID] = true
			ids = append(ids, node.LeagueID)
		}
	}
	for i := range txs {
		if !seen[txs[i].LeagueID] {
			seen[txs[i].LeagueID] = true
			ids = append(ids, txs[i].LeagueID)
		}
	}
	return ids
}

func collectPlayerIDs(assets map[string][]models.TransactionAsset) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, list := range assets {
		for _, asset := range list {
			if asset.PlayerID != nil && !seen[*asset.PlayerID] {
				seen[*asset.PlayerID] = true
				ids = append(ids, *asset.PlayerID)
			}
		}
	}
	sort.Strings(ids)
	return ids
}
