package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/orqestra/campaign-platform/internal/apierr"
	"github.com/orqestra/campaign-platform/internal/models"
)

// MemoryStore is a process-local, mutex-guarded implementation of Store.
// It is the default store for all five binaries when DATABASE_URL is
// unset, mirroring the teacher's internal/store/memory.go.
type MemoryStore struct {
	mu sync.RWMutex

	users         map[string]*models.User
	usersByEmail  map[string]string // email -> id
	refreshTokens map[string]*models.RefreshToken
	loginAudits   []*models.LoginAudit

	campaigns map[string]*models.Campaign
	comments  map[string][]*models.Comment

	statusEvents map[string][]*models.CampaignStatusEvent
	nextEventID  int64

	pieces map[string]map[models.CreativePieceType]*models.CreativePiece

	reviews      map[models.ReviewKey]*models.PieceReview
	reviewEvents map[string][]*models.PieceReviewEvent

	validationCache map[string]*models.ValidationCacheEntry

	enhanceableFields map[string]*models.EnhanceableField
	aiInteractions    map[string]*models.AIInteraction
}

// NewMemoryStore builds an empty MemoryStore seeded with default
// enhanceable-field metadata (mirroring the Python migration seed data).
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		users:             make(map[string]*models.User),
		usersByEmail:      make(map[string]string),
		refreshTokens:     make(map[string]*models.RefreshToken),
		campaigns:         make(map[string]*models.Campaign),
		comments:          make(map[string][]*models.Comment),
		statusEvents:      make(map[string][]*models.CampaignStatusEvent),
		pieces:            make(map[string]map[models.CreativePieceType]*models.CreativePiece),
		reviews:           make(map[models.ReviewKey]*models.PieceReview),
		reviewEvents:      make(map[string][]*models.PieceReviewEvent),
		validationCache:   make(map[string]*models.ValidationCacheEntry),
		enhanceableFields: make(map[string]*models.EnhanceableField),
		aiInteractions:    make(map[string]*models.AIInteraction),
	}
	s.seedEnhanceableFields()
	return s
}

func (s *MemoryStore) seedEnhanceableFields() {
	defaults := []*models.EnhanceableField{
		{FieldName: "business_objective", DisplayName: "Objetivo de negócio",
			Expectations: "Descreva claramente o objetivo de negócio da campanha."},
		{FieldName: "target_audience", DisplayName: "Público-alvo",
			Expectations: "Descreva o público-alvo de forma específica e acionável."},
		{FieldName: "expected_result", DisplayName: "Resultado esperado",
			Expectations: "Descreva o resultado esperado de forma mensurável."},
	}
	for _, f := range defaults {
		s.enhanceableFields[f.FieldName] = f
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }
func (s *MemoryStore) Close() error                    { return nil }

// ── Users ──────────────────────────────────────────────────────────

func (s *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByEmail[u.Email]; exists {
		return apierr.New(apierr.ValidationErr, "email already registered")
	}
	cp := *u
	s.users[u.ID] = &cp
	s.usersByEmail[u.Email] = u.ID
	return nil
}

// SetUserActive flips a user's active flag. Administrative operation, not
// part of the Store interface: no channel in spec scope exposes
// deactivation over HTTP, but tests need a way to exercise the
// AuthInactive path.
func (s *MemoryStore) SetUserActive(id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apierr.New(apierr.NotFound, "user not found")
	}
	u.IsActive = active
	return nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apierr.New(apierr.NotFound, "user not found")
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usersByEmail[email]
	if !ok {
		return nil, apierr.New(apierr.NotFound, "user not found")
	}
	cp := *s.users[id]
	return &cp, nil
}

// ── Refresh tokens ────────────────────────────────────────────────

func (s *MemoryStore) CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.refreshTokens[t.Token] = &cp
	return nil
}

func (s *MemoryStore) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.refreshTokens[token]
	if !ok {
		return nil, apierr.New(apierr.NotFound, "refresh token not found")
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) RevokeRefreshToken(ctx context.Context, token, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.refreshTokens[token]
	if !ok || t.UserID != userID {
		return apierr.New(apierr.NotFound, "refresh token not found")
	}
	t.IsRevoked = true
	return nil
}

// ── Login audit ───────────────────────────────────────────────────

func (s *MemoryStore) CreateLoginAudit(ctx context.Context, a *models.LoginAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.loginAudits = append(s.loginAudits, &cp)
	return nil
}

// ── Campaigns ─────────────────────────────────────────────────────

func (s *MemoryStore) CreateCampaign(ctx context.Context, c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.campaigns[c.ID] = &cp
	return nil
}

func (s *MemoryStore) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, apierr.New(apierr.NotFound, "campaign not found")
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) ListCampaigns(ctx context.Context) ([]*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateCampaign(ctx context.Context, c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[c.ID]; !ok {
		return apierr.New(apierr.NotFound, "campaign not found")
	}
	cp := *c
	s.campaigns[c.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteCampaign(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[id]; !ok {
		return apierr.New(apierr.NotFound, "campaign not found")
	}
	delete(s.campaigns, id)
	return nil
}

func (s *MemoryStore) AddComment(ctx context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.comments[c.CampaignID] = append(s.comments[c.CampaignID], &cp)
	return nil
}

func (s *MemoryStore) ListComments(ctx context.Context, campaignID string) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Comment, len(s.comments[campaignID]))
	copy(out, s.comments[campaignID])
	return out, nil
}

// ── Campaign status events ───────────────────────────────────────

func (s *MemoryStore) AppendCampaignStatusEvent(ctx context.Context, e *models.CampaignStatusEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEventID++
	cp := *e
	cp.ID = s.nextEventID
	s.statusEvents[e.CampaignID] = append(s.statusEvents[e.CampaignID], &cp)
	return nil
}

func (s *MemoryStore) ListCampaignStatusEvents(ctx context.Context, campaignID string) ([]*models.CampaignStatusEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.CampaignStatusEvent, len(s.statusEvents[campaignID]))
	copy(out, s.statusEvents[campaignID])
	return out, nil
}

// ── Creative pieces ───────────────────────────────────────────────

func (s *MemoryStore) UpsertCreativePiece(ctx context.Context, p *models.CreativePiece) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pieces[p.CampaignID] == nil {
		s.pieces[p.CampaignID] = make(map[models.CreativePieceType]*models.CreativePiece)
	}
	cp := *p
	s.pieces[p.CampaignID][p.PieceType] = &cp
	return nil
}

func (s *MemoryStore) GetCreativePiece(ctx context.Context, campaignID string, pieceType models.CreativePieceType) (*models.CreativePiece, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.pieces[campaignID]
	if m == nil {
		return nil, apierr.New(apierr.NotFound, "creative piece not found")
	}
	p, ok := m[pieceType]
	if !ok {
		return nil, apierr.New(apierr.NotFound, "creative piece not found")
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) ListCreativePieces(ctx context.Context, campaignID string) ([]*models.CreativePiece, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.pieces[campaignID]
	out := make([]*models.CreativePiece, 0, len(m))
	for _, p := range m {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// ── Piece reviews ─────────────────────────────────────────────────

func (s *MemoryStore) UpsertPieceReview(ctx context.Context, r *models.PieceReview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.reviews[r.Key()] = &cp
	return nil
}

func (s *MemoryStore) GetPieceReview(ctx context.Context, key models.ReviewKey) (*models.PieceReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reviews[key]
	if !ok {
		return nil, apierr.New(apierr.NotFound, "piece review not found")
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) ListPieceReviews(ctx context.Context, campaignID string) ([]*models.PieceReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.PieceReview, 0)
	for k, r := range s.reviews {
		if k.CampaignID == campaignID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ── Piece review events ──────────────────────────────────────────

func (s *MemoryStore) AppendPieceReviewEvent(ctx context.Context, e *models.PieceReviewEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEventID++
	cp := *e
	cp.ID = s.nextEventID
	s.reviewEvents[e.CampaignID] = append(s.reviewEvents[e.CampaignID], &cp)
	return nil
}

func (s *MemoryStore) ListPieceReviewEvents(ctx context.Context, campaignID string) ([]*models.PieceReviewEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.PieceReviewEvent, len(s.reviewEvents[campaignID]))
	copy(out, s.reviewEvents[campaignID])
	return out, nil
}

// ── Validation cache (durable) ────────────────────────────────────

func validationCacheKey(campaignID, channel, contentHash string) string {
	return fmt.Sprintf("%s:%s:%s", campaignID, channel, contentHash)
}

func (s *MemoryStore) UpsertValidationCacheEntry(ctx context.Context, e *models.ValidationCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := validationCacheKey(e.CampaignID, e.Channel, e.ContentHash)
	cp := *e
	cp.CreatedAt = time.Now().UTC()
	s.validationCache[key] = &cp
	return nil
}

func (s *MemoryStore) GetValidationCacheEntry(ctx context.Context, campaignID, channel, contentHash string) (*models.ValidationCacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.validationCache[validationCacheKey(campaignID, channel, contentHash)]
	if !ok {
		return nil, apierr.New(apierr.NotFound, "validation cache entry not found")
	}
	cp := *e
	return &cp, nil
}

// ── Briefing enhancer ─────────────────────────────────────────────

func (s *MemoryStore) GetEnhanceableField(ctx context.Context, fieldName string) (*models.EnhanceableField, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.enhanceableFields[fieldName]
	if !ok {
		return nil, apierr.New(apierr.NotFound, "enhanceable field not found")
	}
	cp := *f
	return &cp, nil
}

func (s *MemoryStore) CreateAIInteraction(ctx context.Context, i *models.AIInteraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *i
	s.aiInteractions[i.ID] = &cp
	return nil
}

func (s *MemoryStore) UpdateAIInteractionDecision(ctx context.Context, id string, decision models.InteractionDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.aiInteractions[id]
	if !ok {
		return apierr.New(apierr.NotFound, "interaction not found")
	}
	i.Decision = &decision
	return nil
}

func (s *MemoryStore) ListAIInteractionsBySession(ctx context.Context, sessionID string) ([]*models.AIInteraction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.AIInteraction, 0)
	for _, i := range s.aiInteractions {
		if i.SessionID == sessionID {
			cp := *i
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
