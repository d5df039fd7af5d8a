package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orqestra/campaign-platform/internal/apierr"
	"github.com/orqestra/campaign-platform/internal/models"
)

// PostgresStore is the durable Store implementation, wired in when
// DATABASE_URL is set. It mirrors the shape the teacher's pkg/server
// doc comment describes for the enterprise repo's Postgres store: any
// caller can pass it to a service's composition root in place of
// MemoryStore. Schema migrations are an external collaborator (spec §1);
// this package assumes the tables already exist.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a connection pool against dsn.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }
func (p *PostgresStore) Close() error                   { p.pool.Close(); return nil }

func notFoundOrErr(err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apierr.New(apierr.NotFound, msg)
	}
	return err
}

// ── Users ──────────────────────────────────────────────────────────

func (p *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO users (id, email, hashed_password, full_name, role, is_active, is_superuser, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		u.ID, u.Email, u.HashedPassword, u.FullName, u.Role, u.IsActive, u.IsSuperuser, u.CreatedAt)
	return err
}

func (p *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return p.scanUser(ctx, `SELECT id,email,hashed_password,full_name,role,is_active,is_superuser,created_at FROM users WHERE id=$1`, id)
}

func (p *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return p.scanUser(ctx, `SELECT id,email,hashed_password,full_name,role,is_active,is_superuser,created_at FROM users WHERE email=$1`, email)
}

func (p *PostgresStore) scanUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := p.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.HashedPassword, &u.FullName, &u.Role, &u.IsActive, &u.IsSuperuser, &u.CreatedAt)
	if err != nil {
		return nil, notFoundOrErr(err, "user not found")
	}
	return &u, nil
}

// ── Refresh tokens ────────────────────────────────────────────────

func (p *PostgresStore) CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, is_revoked, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		t.ID, t.UserID, t.Token, t.ExpiresAt, t.IsRevoked, t.CreatedAt)
	return err
}

func (p *PostgresStore) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	err := p.pool.QueryRow(ctx, `SELECT id,user_id,token,expires_at,is_revoked,created_at FROM refresh_tokens WHERE token=$1`, token).
		Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.IsRevoked, &t.CreatedAt)
	if err != nil {
		return nil, notFoundOrErr(err, "refresh token not found")
	}
	return &t, nil
}

func (p *PostgresStore) RevokeRefreshToken(ctx context.Context, token, userID string) error {
	tag, err := p.pool.Exec(ctx, `UPDATE refresh_tokens SET is_revoked=true WHERE token=$1 AND user_id=$2`, token, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apierr.New(apierr.NotFound, "refresh token not found")
	}
	return nil
}

// ── Login audit ───────────────────────────────────────────────────

func (p *PostgresStore) CreateLoginAudit(ctx context.Context, a *models.LoginAudit) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO login_audits (id, user_id, email, ip_address, user_agent, success, failure_reason, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, nullIfEmpty(a.UserID), a.Email, a.IPAddress, a.UserAgent, a.Success, a.FailureReason, a.CreatedAt)
	return err
}

// ── Campaigns ─────────────────────────────────────────────────────

func (p *PostgresStore) CreateCampaign(ctx context.Context, c *models.Campaign) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO campaigns (id, name, category, business_objective, expected_result, requesting_area,
			start_date, end_date, priority, channels, commercial_spaces, target_audience,
			exclusion_criteria, estimated_impact, tone, execution_model, trigger_event,
			recency_days, status, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		c.ID, c.Name, c.Category, c.BusinessObjective, c.ExpectedResult, c.RequestingArea,
		c.StartDate, c.EndDate, c.Priority, channelsToStrings(c.Channels), spacesToStrings(c.CommercialSpaces),
		c.TargetAudience, c.ExclusionCriteria, c.EstimatedImpact, c.Tone, c.ExecutionModel,
		nullIfEmpty(string(c.TriggerEvent)), c.RecencyDays, c.Status, c.CreatedBy, c.CreatedAt)
	return err
}

func channelsToStrings(chs []models.CommunicationChannel) []string {
	out := make([]string, len(chs))
	for i, c := range chs {
		out[i] = string(c)
	}
	return out
}

func spacesToStrings(sp []models.CommercialSpace) []string {
	out := make([]string, len(sp))
	for i, s := range sp {
		out[i] = string(s)
	}
	return out
}

func stringsToChannels(ss []string) []models.CommunicationChannel {
	out := make([]models.CommunicationChannel, len(ss))
	for i, s := range ss {
		out[i] = models.CommunicationChannel(s)
	}
	return out
}

func stringsToSpaces(ss []string) []models.CommercialSpace {
	out := make([]models.CommercialSpace, len(ss))
	for i, s := range ss {
		out[i] = models.CommercialSpace(s)
	}
	return out
}

func (p *PostgresStore) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	row := p.pool.QueryRow(ctx, `SELECT id,name,category,business_objective,expected_result,requesting_area,
		start_date,end_date,priority,channels,commercial_spaces,target_audience,exclusion_criteria,
		estimated_impact,tone,execution_model,trigger_event,recency_days,status,created_by,created_at
		FROM campaigns WHERE id=$1`, id)
	return scanCampaign(row)
}

func (p *PostgresStore) ListCampaigns(ctx context.Context) ([]*models.Campaign, error) {
	rows, err := p.pool.Query(ctx, `SELECT id,name,category,business_objective,expected_result,requesting_area,
		start_date,end_date,priority,channels,commercial_spaces,target_audience,exclusion_criteria,
		estimated_impact,tone,execution_model,trigger_event,recency_days,status,created_by,created_at
		FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Campaign
	for rows.Next() {
		c, err := scanCampaignRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *PostgresStore) UpdateCampaign(ctx context.Context, c *models.Campaign) error {
	tag, err := p.pool.Exec(ctx, `UPDATE campaigns SET name=$2,category=$3,business_objective=$4,
		expected_result=$5,requesting_area=$6,start_date=$7,end_date=$8,priority=$9,channels=$10,
		commercial_spaces=$11,target_audience=$12,exclusion_criteria=$13,estimated_impact=$14,
		tone=$15,execution_model=$16,trigger_event=$17,recency_days=$18,status=$19
		WHERE id=$1`,
		c.ID, c.Name, c.Category, c.BusinessObjective, c.ExpectedResult, c.RequestingArea,
		c.StartDate, c.EndDate, c.Priority, channelsToStrings(c.Channels), spacesToStrings(c.CommercialSpaces),
		c.TargetAudience, c.ExclusionCriteria, c.EstimatedImpact, c.Tone, c.ExecutionModel,
		nullIfEmpty(string(c.TriggerEvent)), c.RecencyDays, c.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apierr.New(apierr.NotFound, "campaign not found")
	}
	return nil
}

func (p *PostgresStore) DeleteCampaign(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apierr.New(apierr.NotFound, "campaign not found")
	}
	return nil
}

func (p *PostgresStore) AddComment(ctx context.Context, c *models.Comment) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO comments (id, campaign_id, author, role, text, timestamp)
		VALUES ($1,$2,$3,$4,$5,$6)`, c.ID, c.CampaignID, c.Author, c.Role, c.Text, c.Timestamp)
	return err
}

func (p *PostgresStore) ListComments(ctx context.Context, campaignID string) ([]*models.Comment, error) {
	rows, err := p.pool.Query(ctx, `SELECT id,campaign_id,author,role,text,timestamp FROM comments
		WHERE campaign_id=$1 ORDER BY timestamp ASC`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.CampaignID, &c.Author, &c.Role, &c.Text, &c.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// ── Campaign status events ───────────────────────────────────────

func (p *PostgresStore) AppendCampaignStatusEvent(ctx context.Context, e *models.CampaignStatusEvent) error {
	return p.pool.QueryRow(ctx, `INSERT INTO campaign_status_events (campaign_id, from_status, to_status, actor_id, created_at)
		VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		e.CampaignID, nullIfEmpty(string(e.FromStatus)), e.ToStatus, e.ActorID, e.CreatedAt).Scan(&e.ID)
}

func (p *PostgresStore) ListCampaignStatusEvents(ctx context.Context, campaignID string) ([]*models.CampaignStatusEvent, error) {
	rows, err := p.pool.Query(ctx, `SELECT id,campaign_id,from_status,to_status,actor_id,created_at
		FROM campaign_status_events WHERE campaign_id=$1 ORDER BY created_at ASC, id ASC`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.CampaignStatusEvent
	for rows.Next() {
		var e models.CampaignStatusEvent
		var from *string
		if err := rows.Scan(&e.ID, &e.CampaignID, &from, &e.ToStatus, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		if from != nil {
			e.FromStatus = models.CampaignStatus(*from)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// ── Creative pieces ───────────────────────────────────────────────

func (p *PostgresStore) UpsertCreativePiece(ctx context.Context, piece *models.CreativePiece) error {
	imgKeys, err := json.Marshal(piece.ImageObjectKeys)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO creative_pieces (id, campaign_id, piece_type, body, title, html_object_key, image_object_keys, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (campaign_id, piece_type) DO UPDATE SET
			body=excluded.body, title=excluded.title, html_object_key=excluded.html_object_key,
			image_object_keys=excluded.image_object_keys, updated_at=excluded.updated_at`,
		piece.ID, piece.CampaignID, piece.PieceType, piece.Body, piece.Title, piece.HTMLObjectKey,
		imgKeys, piece.CreatedAt, piece.UpdatedAt)
	return err
}

func (p *PostgresStore) GetCreativePiece(ctx context.Context, campaignID string, pieceType models.CreativePieceType) (*models.CreativePiece, error) {
	var piece models.CreativePiece
	var imgKeys []byte
	err := p.pool.QueryRow(ctx, `SELECT id,campaign_id,piece_type,body,title,html_object_key,image_object_keys,created_at,updated_at
		FROM creative_pieces WHERE campaign_id=$1 AND piece_type=$2`, campaignID, pieceType).
		Scan(&piece.ID, &piece.CampaignID, &piece.PieceType, &piece.Body, &piece.Title, &piece.HTMLObjectKey,
			&imgKeys, &piece.CreatedAt, &piece.UpdatedAt)
	if err != nil {
		return nil, notFoundOrErr(err, "creative piece not found")
	}
	_ = json.Unmarshal(imgKeys, &piece.ImageObjectKeys)
	return &piece, nil
}

func (p *PostgresStore) ListCreativePieces(ctx context.Context, campaignID string) ([]*models.CreativePiece, error) {
	rows, err := p.pool.Query(ctx, `SELECT id,campaign_id,piece_type,body,title,html_object_key,image_object_keys,created_at,updated_at
		FROM creative_pieces WHERE campaign_id=$1`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.CreativePiece
	for rows.Next() {
		var piece models.CreativePiece
		var imgKeys []byte
		if err := rows.Scan(&piece.ID, &piece.CampaignID, &piece.PieceType, &piece.Body, &piece.Title,
			&piece.HTMLObjectKey, &imgKeys, &piece.CreatedAt, &piece.UpdatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(imgKeys, &piece.ImageObjectKeys)
		out = append(out, &piece)
	}
	return out, rows.Err()
}

// ── Piece reviews ─────────────────────────────────────────────────

func (p *PostgresStore) UpsertPieceReview(ctx context.Context, r *models.PieceReview) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO piece_reviews (id, campaign_id, channel, piece_id, commercial_space, ia_verdict,
			human_verdict, rejection_reason, reviewed_by, reviewed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (campaign_id, channel, piece_id, commercial_space) DO UPDATE SET
			ia_verdict=excluded.ia_verdict, human_verdict=excluded.human_verdict,
			rejection_reason=excluded.rejection_reason, reviewed_by=excluded.reviewed_by,
			reviewed_at=excluded.reviewed_at`,
		r.ID, r.CampaignID, r.Channel, r.PieceID, r.CommercialSpace, r.IAVerdict,
		r.HumanVerdict, r.RejectionReason, nullIfEmpty(r.ReviewedBy), r.ReviewedAt)
	return err
}

func (p *PostgresStore) GetPieceReview(ctx context.Context, key models.ReviewKey) (*models.PieceReview, error) {
	var r models.PieceReview
	err := p.pool.QueryRow(ctx, `SELECT id,campaign_id,channel,piece_id,commercial_space,ia_verdict,
		human_verdict,rejection_reason,reviewed_by,reviewed_at FROM piece_reviews
		WHERE campaign_id=$1 AND channel=$2 AND piece_id=$3 AND commercial_space=$4`,
		key.CampaignID, key.Channel, key.PieceID, key.CommercialSpace).
		Scan(&r.ID, &r.CampaignID, &r.Channel, &r.PieceID, &r.CommercialSpace, &r.IAVerdict,
			&r.HumanVerdict, &r.RejectionReason, &r.ReviewedBy, &r.ReviewedAt)
	if err != nil {
		return nil, notFoundOrErr(err, "piece review not found")
	}
	return &r, nil
}

func (p *PostgresStore) ListPieceReviews(ctx context.Context, campaignID string) ([]*models.PieceReview, error) {
	rows, err := p.pool.Query(ctx, `SELECT id,campaign_id,channel,piece_id,commercial_space,ia_verdict,
		human_verdict,rejection_reason,reviewed_by,reviewed_at FROM piece_reviews WHERE campaign_id=$1`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.PieceReview
	for rows.Next() {
		var r models.PieceReview
		if err := rows.Scan(&r.ID, &r.CampaignID, &r.Channel, &r.PieceID, &r.CommercialSpace, &r.IAVerdict,
			&r.HumanVerdict, &r.RejectionReason, &r.ReviewedBy, &r.ReviewedAt); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// ── Piece review events ──────────────────────────────────────────

func (p *PostgresStore) AppendPieceReviewEvent(ctx context.Context, e *models.PieceReviewEvent) error {
	return p.pool.QueryRow(ctx, `INSERT INTO piece_review_events (campaign_id, channel, piece_id,
		commercial_space, event_type, ia_verdict, rejection_reason, actor_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		e.CampaignID, e.Channel, e.PieceID, e.CommercialSpace, e.EventType, e.IAVerdict,
		e.RejectionReason, e.ActorID, e.CreatedAt).Scan(&e.ID)
}

func (p *PostgresStore) ListPieceReviewEvents(ctx context.Context, campaignID string) ([]*models.PieceReviewEvent, error) {
	rows, err := p.pool.Query(ctx, `SELECT id,campaign_id,channel,piece_id,commercial_space,event_type,
		ia_verdict,rejection_reason,actor_id,created_at FROM piece_review_events
		WHERE campaign_id=$1 ORDER BY created_at ASC, id ASC`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.PieceReviewEvent
	for rows.Next() {
		var e models.PieceReviewEvent
		if err := rows.Scan(&e.ID, &e.CampaignID, &e.Channel, &e.PieceID, &e.CommercialSpace, &e.EventType,
			&e.IAVerdict, &e.RejectionReason, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// ── Validation cache (durable) ────────────────────────────────────

func (p *PostgresStore) UpsertValidationCacheEntry(ctx context.Context, e *models.ValidationCacheEntry) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO validation_cache_entries (id, campaign_id, channel, content_hash, response_json, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (campaign_id, channel, content_hash) DO UPDATE SET
			response_json=excluded.response_json, created_at=excluded.created_at`,
		e.ID, e.CampaignID, e.Channel, e.ContentHash, e.Response, time.Now().UTC())
	return err
}

func (p *PostgresStore) GetValidationCacheEntry(ctx context.Context, campaignID, channel, contentHash string) (*models.ValidationCacheEntry, error) {
	var e models.ValidationCacheEntry
	err := p.pool.QueryRow(ctx, `SELECT id,campaign_id,channel,content_hash,response_json,created_at
		FROM validation_cache_entries WHERE campaign_id=$1 AND channel=$2 AND content_hash=$3`,
		campaignID, channel, contentHash).
		Scan(&e.ID, &e.CampaignID, &e.Channel, &e.ContentHash, &e.Response, &e.CreatedAt)
	if err != nil {
		return nil, notFoundOrErr(err, "validation cache entry not found")
	}
	return &e, nil
}

// ── Briefing enhancer ─────────────────────────────────────────────

func (p *PostgresStore) GetEnhanceableField(ctx context.Context, fieldName string) (*models.EnhanceableField, error) {
	var f models.EnhanceableField
	err := p.pool.QueryRow(ctx, `SELECT field_name,display_name,expectations,improvement_guidelines
		FROM enhanceable_fields WHERE field_name=$1`, fieldName).
		Scan(&f.FieldName, &f.DisplayName, &f.Expectations, &f.ImprovementGuidelines)
	if err != nil {
		return nil, notFoundOrErr(err, "enhanceable field not found")
	}
	return &f, nil
}

func (p *PostgresStore) CreateAIInteraction(ctx context.Context, i *models.AIInteraction) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO ai_interactions (id, user_id, field_name, original_text, enhanced_text, explanation,
			session_id, campaign_id, decision, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		i.ID, i.UserID, i.FieldName, i.OriginalText, i.EnhancedText, i.Explanation,
		nullIfEmpty(i.SessionID), nullIfEmpty(i.CampaignID), i.Decision, i.CreatedAt)
	return err
}

func (p *PostgresStore) UpdateAIInteractionDecision(ctx context.Context, id string, decision models.InteractionDecision) error {
	tag, err := p.pool.Exec(ctx, `UPDATE ai_interactions SET decision=$2 WHERE id=$1`, id, decision)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apierr.New(apierr.NotFound, "interaction not found")
	}
	return nil
}

func (p *PostgresStore) ListAIInteractionsBySession(ctx context.Context, sessionID string) ([]*models.AIInteraction, error) {
	rows, err := p.pool.Query(ctx, `SELECT id,user_id,field_name,original_text,enhanced_text,explanation,
		session_id,campaign_id,decision,created_at
		FROM ai_interactions WHERE session_id=$1 ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.AIInteraction
	for rows.Next() {
		var i models.AIInteraction
		var session, campaign *string
		if err := rows.Scan(&i.ID, &i.UserID, &i.FieldName, &i.OriginalText, &i.EnhancedText, &i.Explanation,
			&session, &campaign, &i.Decision, &i.CreatedAt); err != nil {
			return nil, err
		}
		if session != nil {
			i.SessionID = *session
		}
		if campaign != nil {
			i.CampaignID = *campaign
		}
		out = append(out, &i)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row pgx.Row) (*models.Campaign, error) {
	return scanCampaignRows(row)
}

func scanCampaignRows(row rowScanner) (*models.Campaign, error) {
	var c models.Campaign
	var trigger *string
	var channels, spaces []string
	err := row.Scan(&c.ID, &c.Name, &c.Category, &c.BusinessObjective, &c.ExpectedResult, &c.RequestingArea,
		&c.StartDate, &c.EndDate, &c.Priority, &channels, &spaces, &c.TargetAudience,
		&c.ExclusionCriteria, &c.EstimatedImpact, &c.Tone, &c.ExecutionModel, &trigger,
		&c.RecencyDays, &c.Status, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		return nil, notFoundOrErr(err, "campaign not found")
	}
	if trigger != nil {
		c.TriggerEvent = models.TriggerEvent(*trigger)
	}
	c.Channels = stringsToChannels(channels)
	c.CommercialSpaces = stringsToSpaces(spaces)
	return &c, nil
}

var _ Store = (*PostgresStore)(nil)
