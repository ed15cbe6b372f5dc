package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	dataagg "github.com/yungbote/pitchroom-backend/internal/data/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/data/repos"
	types "github.com/yungbote/pitchroom-backend/internal/domain"
	domainagg "github.com/yungbote/pitchroom-backend/internal/domain/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/domain/pitch"
	"github.com/yungbote/pitchroom-backend/internal/observability"
	"github.com/yungbote/pitchroom-backend/internal/platform/ctxutil"
	"github.com/yungbote/pitchroom-backend/internal/platform/dbctx"
	"github.com/yungbote/pitchroom-backend/internal/platform/grantstore"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

type DenyReason string

const (
	ReasonNone             DenyReason = ""
	ReasonNotFound         DenyReason = "not_found"
	ReasonPrivate          DenyReason = "private"
	ReasonPasswordRequired DenyReason = "password_required"
)

// Decision is the outcome of an access check. Only an allowed decision can be spent on
// asset issuance or funding summaries, and only for the pitch it names.
type Decision struct {
	Allowed  bool       `json:"allowed"`
	Reason   DenyReason `json:"reason,omitempty"`
	PitchID  uuid.UUID  `json:"pitch_id"`
	PolicyID uuid.UUID  `json:"policy_id,omitempty"`
	// Owner is set when access was granted by ownership rather than by a share policy.
	Owner bool `json:"owner,omitempty"`
	// Grant is set when a password unlock minted a new grant.
	Grant          string     `json:"grant,omitempty"`
	GrantExpiresAt *time.Time `json:"grant_expires_at,omitempty"`
}

func (d Decision) permits(pitchID uuid.UUID) bool {
	return d.Allowed && d.PitchID != uuid.Nil && d.PitchID == pitchID
}

type AuthorizeRequest struct {
	PitchID  uuid.UUID
	Password *string
	Grant    string
}

type DisclosureConfig struct {
	GrantTTL   time.Duration
	BcryptCost int
}

type DisclosureService interface {
	CreatePolicy(ctx context.Context, ownerID, pitchID uuid.UUID, visibility pitch.Visibility, password *string) (*types.SharePolicy, error)
	Revoke(ctx context.Context, ownerID, pitchID uuid.UUID) (*types.SharePolicy, error)
	State(ctx context.Context, ownerID, pitchID uuid.UUID) (pitch.DisclosureState, error)
	ActivePolicy(ctx context.Context, ownerID, pitchID uuid.UUID) (*types.SharePolicy, error)
	History(ctx context.Context, ownerID, pitchID uuid.UUID) ([]*types.SharePolicy, error)

	// Authorize evaluates the share policy for a viewer. It always yields exactly one
	// decision; the error is reserved for backing store failures.
	Authorize(ctx context.Context, viewer ctxutil.Viewer, req AuthorizeRequest) (Decision, error)
	// AuthorizeOwner is the explicit ownership check for owner-facing reads and deletes.
	AuthorizeOwner(ctx context.Context, viewer ctxutil.Viewer, pitchID uuid.UUID) (Decision, error)
}

type disclosureService struct {
	log        *logger.Logger
	cfg        DisclosureConfig
	pitches    repos.PitchRepo
	policies   repos.SharePolicyRepo
	disclosure pitch.DisclosureAggregate
	grants     grantstore.Store
	now        func() time.Time
}

func NewDisclosureService(
	baseLog *logger.Logger,
	cfg DisclosureConfig,
	pitches repos.PitchRepo,
	policies repos.SharePolicyRepo,
	disclosure pitch.DisclosureAggregate,
	grants grantstore.Store,
) DisclosureService {
	if cfg.GrantTTL <= 0 {
		cfg.GrantTTL = time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &disclosureService{
		log:        baseLog.With("service", "DisclosureController"),
		cfg:        cfg,
		pitches:    pitches,
		policies:   policies,
		disclosure: disclosure,
		grants:     grants,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *disclosureService) ownedPitch(ctx context.Context, op string, ownerID, pitchID uuid.UUID) (*types.Pitch, error) {
	if ownerID == uuid.Nil || pitchID == uuid.Nil {
		return nil, domainagg.NotFound(op, "pitch")
	}
	p, err := s.pitches.GetByID(dbctx.Context{Ctx: ctx}, pitchID, false)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if p == nil || p.OwnerID != ownerID {
		return nil, domainagg.NotFound(op, "pitch")
	}
	return p, nil
}

func (s *disclosureService) CreatePolicy(ctx context.Context, ownerID, pitchID uuid.UUID, visibility pitch.Visibility, password *string) (*types.SharePolicy, error) {
	const op = "disclosure.create_policy"
	visibility = pitch.Visibility(strings.ToLower(strings.TrimSpace(string(visibility))))
	if !visibility.Valid() {
		return nil, domainagg.Validation(op, "visibility must be private or public")
	}
	if _, err := s.ownedPitch(ctx, op, ownerID, pitchID); err != nil {
		return nil, err
	}

	var hash *string
	if password != nil {
		if visibility != pitch.VisibilityPublic {
			return nil, domainagg.Validation(op, "a password requires public visibility")
		}
		if len(*password) < 4 || len(*password) > 72 {
			return nil, domainagg.Validation(op, "password must be between 4 and 72 bytes")
		}
		raw, err := bcrypt.GenerateFromPassword([]byte(*password), s.cfg.BcryptCost)
		if err != nil {
			return nil, domainagg.NewError(domainagg.CodeInternal, op, "hash password", err)
		}
		h := string(raw)
		hash = &h
	}

	created, err := s.disclosure.Create(ctx, pitch.CreatePolicyInput{
		PitchID:      pitchID,
		Visibility:   visibility,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Share policy created",
		"pitch_id", pitchID,
		"policy_id", created.ID,
		"visibility", created.Visibility,
		"password_protected", created.PasswordProtected(),
	)
	return created, nil
}

func (s *disclosureService) Revoke(ctx context.Context, ownerID, pitchID uuid.UUID) (*types.SharePolicy, error) {
	const op = "disclosure.revoke"
	if _, err := s.ownedPitch(ctx, op, ownerID, pitchID); err != nil {
		return nil, err
	}
	revoked, err := s.disclosure.Revoke(ctx, pitchID, s.now())
	if err != nil {
		return nil, err
	}
	s.log.Info("Share policy revoked", "pitch_id", pitchID, "policy_id", revoked.ID)
	return revoked, nil
}

func (s *disclosureService) State(ctx context.Context, ownerID, pitchID uuid.UUID) (pitch.DisclosureState, error) {
	const op = "disclosure.state"
	if _, err := s.ownedPitch(ctx, op, ownerID, pitchID); err != nil {
		return "", err
	}
	dbc := dbctx.Context{Ctx: ctx}
	active, err := s.policies.GetActive(dbc, pitchID)
	if err != nil {
		return "", dataagg.MapError(op, err)
	}
	anyRevoked := false
	if active == nil {
		if anyRevoked, err = s.policies.HasRevoked(dbc, pitchID); err != nil {
			return "", dataagg.MapError(op, err)
		}
	}
	return pitch.DeriveState(active, anyRevoked), nil
}

func (s *disclosureService) ActivePolicy(ctx context.Context, ownerID, pitchID uuid.UUID) (*types.SharePolicy, error) {
	const op = "disclosure.active_policy"
	if _, err := s.ownedPitch(ctx, op, ownerID, pitchID); err != nil {
		return nil, err
	}
	active, err := s.policies.GetActive(dbctx.Context{Ctx: ctx}, pitchID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if active == nil {
		return nil, domainagg.NotFound(op, "active share policy")
	}
	return active, nil
}

func (s *disclosureService) History(ctx context.Context, ownerID, pitchID uuid.UUID) ([]*types.SharePolicy, error) {
	const op = "disclosure.history"
	if _, err := s.ownedPitch(ctx, op, ownerID, pitchID); err != nil {
		return nil, err
	}
	out, err := s.policies.ListByPitch(dbctx.Context{Ctx: ctx}, pitchID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return out, nil
}

func (s *disclosureService) Authorize(ctx context.Context, viewer ctxutil.Viewer, req AuthorizeRequest) (Decision, error) {
	d, err := s.authorize(ctx, viewer, req)
	if err == nil {
		observability.Current().IncDisclosureDecision(d.Allowed, string(d.Reason))
	}
	return d, err
}

func (s *disclosureService) authorize(ctx context.Context, viewer ctxutil.Viewer, req AuthorizeRequest) (Decision, error) {
	const op = "disclosure.authorize"
	deny := func(reason DenyReason) (Decision, error) {
		return Decision{Allowed: false, Reason: reason, PitchID: req.PitchID}, nil
	}
	if req.PitchID == uuid.Nil {
		return deny(ReasonNotFound)
	}
	dbc := dbctx.Context{Ctx: ctx}
	p, err := s.pitches.GetByID(dbc, req.PitchID, false)
	if err != nil {
		return Decision{}, dataagg.MapError(op, err)
	}
	if p == nil {
		return deny(ReasonNotFound)
	}
	active, err := s.policies.GetActive(dbc, req.PitchID)
	if err != nil {
		return Decision{}, dataagg.MapError(op, err)
	}
	if active == nil {
		return deny(ReasonNotFound)
	}

	allow := Decision{Allowed: true, PitchID: req.PitchID, PolicyID: active.ID}
	switch {
	case active.Visibility == pitch.VisibilityPrivate:
		if viewer.Authenticated() && viewer.UserID == p.OwnerID {
			allow.Owner = true
			return allow, nil
		}
		return deny(ReasonPrivate)
	case !active.PasswordProtected():
		return allow, nil
	}

	if s.grantUnlocks(ctx, req.Grant, active.ID) {
		return allow, nil
	}
	if req.Password == nil {
		return deny(ReasonPasswordRequired)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*active.PasswordHash), []byte(*req.Password)); err != nil {
		return deny(ReasonPasswordRequired)
	}
	s.issueGrant(ctx, &allow)
	return allow, nil
}

func (s *disclosureService) grantUnlocks(ctx context.Context, grant string, policyID uuid.UUID) bool {
	grant = strings.TrimSpace(grant)
	if grant == "" || s.grants == nil {
		return false
	}
	unlocked, ok, err := s.grants.Lookup(ctx, grant)
	if err != nil {
		s.log.Warn("Grant lookup failed", "error", err)
		return false
	}
	return ok && unlocked == policyID
}

func (s *disclosureService) issueGrant(ctx context.Context, d *Decision) {
	if s.grants == nil {
		return
	}
	grant := uuid.NewString()
	if err := s.grants.Put(ctx, grant, d.PolicyID, s.cfg.GrantTTL); err != nil {
		s.log.Warn("Grant store write failed", "pitch_id", d.PitchID, "error", err)
		return
	}
	exp := s.now().Add(s.cfg.GrantTTL)
	d.Grant = grant
	d.GrantExpiresAt = &exp
}

func (s *disclosureService) AuthorizeOwner(ctx context.Context, viewer ctxutil.Viewer, pitchID uuid.UUID) (Decision, error) {
	if !viewer.Authenticated() {
		return Decision{Reason: ReasonNotFound, PitchID: pitchID}, nil
	}
	p, err := s.ownedPitch(ctx, "disclosure.authorize_owner", viewer.UserID, pitchID)
	if err != nil {
		if domainagg.IsCode(err, domainagg.CodeNotFound) {
			return Decision{Reason: ReasonNotFound, PitchID: pitchID}, nil
		}
		return Decision{}, err
	}
	return Decision{Allowed: true, PitchID: p.ID, Owner: true}, nil
}
