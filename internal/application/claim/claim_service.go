// Package claim implements the klaim kegiatan use cases: submission,
// revision, review with ledger crediting, deletion and evidence access.
package claim

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/application/access"
	"github.com/poinmhs/backend/internal/application/filestore"
	"github.com/poinmhs/backend/internal/application/ledger"
	"github.com/poinmhs/backend/internal/application/transaction"
	"github.com/poinmhs/backend/internal/domain/activity"
	"github.com/poinmhs/backend/internal/domain/claim"
	"github.com/poinmhs/backend/internal/domain/shared"
	"github.com/poinmhs/backend/internal/domain/student"
	"github.com/poinmhs/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Metrics receives claim lifecycle counters
type Metrics interface {
	RecordClaimSubmitted(ctx context.Context)
	RecordClaimReviewed(ctx context.Context, to claim.Status, points int)
}

type nopMetrics struct{}

func (nopMetrics) RecordClaimSubmitted(context.Context)                   {}
func (nopMetrics) RecordClaimReviewed(context.Context, claim.Status, int) {}

// ClaimService handles claim operations
type ClaimService struct {
	claims         claim.ClaimRepository
	students       student.StudentRepository
	types          activity.ActivityTypeRepository
	tx             transaction.Scope
	ledger         *ledger.PointLedger
	files          filestore.Store
	evidencePolicy filestore.Policy
	eventPublisher shared.EventPublisher
	metrics        Metrics
	logger         *zap.Logger
}

// NewClaimService creates a new ClaimService
func NewClaimService(
	claims claim.ClaimRepository,
	students student.StudentRepository,
	types activity.ActivityTypeRepository,
	tx transaction.Scope,
	pointLedger *ledger.PointLedger,
	files filestore.Store,
	logger *zap.Logger,
) *ClaimService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pointLedger == nil {
		pointLedger = ledger.NewPointLedger(logger)
	}
	return &ClaimService{
		claims:         claims,
		students:       students,
		types:          types,
		tx:             tx,
		ledger:         pointLedger,
		files:          files,
		evidencePolicy: filestore.DefaultEvidencePolicy(),
		metrics:        nopMetrics{},
		logger:         logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *ClaimService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetEvidencePolicy overrides the accepted evidence types and size
func (s *ClaimService) SetEvidencePolicy(p filestore.Policy) {
	s.evidencePolicy = p
}

// SetMetrics sets the claim metrics recorder
func (s *ClaimService) SetMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// Create files a new claim in the Submitted state. Points are copied from
// the activity type's current weight.
func (s *ClaimService) Create(ctx context.Context, p *access.Principal, in CreateClaimInput) (*ClaimResponse, error) {
	studentID, err := resolveSubmitter(p, in.StudentID)
	if err != nil {
		return nil, err
	}

	details := in.Details.toDomain()
	if err := details.Validate(); err != nil {
		return nil, err
	}
	if in.ActivityTypeID == uuid.Nil {
		return nil, shared.NewValidationError("master_poin_id is required")
	}
	if in.Evidence == nil {
		return nil, shared.NewValidationError("bukti_kegiatan file is required")
	}
	if err := s.evidencePolicy.Check(in.Evidence); err != nil {
		return nil, shared.NewValidationError("bukti_kegiatan: %s", err.Error())
	}

	st, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, notFoundAs(err, "student")
	}
	at, err := s.types.FindByID(ctx, in.ActivityTypeID)
	if err != nil {
		return nil, notFoundAs(err, "activity type")
	}

	fileID, err := s.files.Store(ctx, filestore.FolderEvidence, in.Evidence.Data, in.Evidence.ContentType)
	if err != nil {
		s.logger.Error("Failed to store evidence",
			zap.String("student_id", studentID.String()),
			zap.Error(err))
		return nil, shared.NewUploadError(err)
	}

	c, err := claim.NewClaim(st.ID, at.ID, details, at.Weight, fileID)
	if err != nil {
		s.discardFile(ctx, fileID)
		return nil, err
	}
	if err := s.claims.Create(ctx, c); err != nil {
		s.discardFile(ctx, fileID)
		return nil, err
	}

	s.logger.Info("Claim submitted",
		zap.String("claim_id", c.ID.String()),
		zap.String("nim", st.NIM),
		zap.String("kode_keg", at.Code),
		zap.Int("poin", c.Points))
	s.metrics.RecordClaimSubmitted(ctx)
	s.publishDomainEvents(ctx, c)

	resp := ToClaimResponse(c, st, at)
	return &resp, nil
}

// Get returns one claim the principal may read
func (s *ClaimService) Get(ctx context.Context, p *access.Principal, id uuid.UUID) (*ClaimResponse, error) {
	c, err := s.readable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	resp := s.enrich(ctx, []claim.Claim{*c})
	return &resp[0], nil
}

// List returns claims newest first. Students only ever see their own.
func (s *ClaimService) List(ctx context.Context, p *access.Principal, f ListClaimsFilter) ([]ClaimResponse, int64, error) {
	scope, err := access.ClaimListScope(p)
	if err != nil {
		return nil, 0, err
	}

	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = min(f.PageSize, 100)
	}
	if scope != nil {
		filter.Filters["student_id"] = *scope
	}
	if f.Status != "" {
		status, ok := claim.ParseStatus(f.Status)
		if !ok {
			return nil, 0, shared.NewValidationError("unknown status %q", f.Status)
		}
		filter.Filters["status"] = status
	}

	claims, err := s.claims.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.claims.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return s.enrich(ctx, claims), total, nil
}

// Resubmit applies the owner's corrections to a claim in Revision. A new
// evidence file, when given, replaces the old one.
func (s *ClaimService) Resubmit(ctx context.Context, p *access.Principal, id uuid.UUID, in ResubmitClaimInput) (*ClaimResponse, error) {
	studentID, err := access.RequireStudent(p)
	if err != nil {
		return nil, err
	}

	c, err := s.claims.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "claim")
	}
	if !c.IsOwnedBy(studentID) {
		return nil, shared.NewForbiddenError("only the owning student can update this claim")
	}
	if !c.Status.CanResubmit() {
		return nil, shared.NewInvalidStateError("only claims in revision can be updated, current status is %s", c.Status.Label())
	}
	details := in.Details.toDomain()
	if err := details.Validate(); err != nil {
		return nil, err
	}
	if in.Evidence != nil {
		if err := s.evidencePolicy.Check(in.Evidence); err != nil {
			return nil, shared.NewValidationError("bukti_kegiatan: %s", err.Error())
		}
	}

	var newFileID, oldFileID string
	if in.Evidence != nil {
		newFileID, err = s.files.Store(ctx, filestore.FolderEvidence, in.Evidence.Data, in.Evidence.ContentType)
		if err != nil {
			return nil, shared.NewUploadError(err)
		}
		if oldFileID, err = c.ReplaceEvidence(newFileID); err != nil {
			s.discardFile(ctx, newFileID)
			return nil, err
		}
	}

	if err := c.Resubmit(studentID, details); err != nil {
		s.discardFile(ctx, newFileID)
		return nil, err
	}
	// A concurrent resubmit or delete makes the guarded write fail; the
	// uploaded file is dropped and the stored claim is left untouched.
	if err := s.claims.UpdateIfStatus(ctx, c, claim.StatusRevision); err != nil {
		s.discardFile(ctx, newFileID)
		return nil, notFoundAs(err, "claim")
	}
	s.discardFile(ctx, oldFileID)

	s.logger.Info("Claim resubmitted", zap.String("claim_id", c.ID.String()))
	s.publishDomainEvents(ctx, c)

	resp := s.enrich(ctx, []claim.Claim{*c})
	return &resp[0], nil
}

// Review applies an admin decision. The status write and the ledger credit
// commit together; the status write only succeeds if no concurrent review
// changed the claim first, so an approval credits the ledger once.
func (s *ClaimService) Review(ctx context.Context, p *access.Principal, id uuid.UUID, in ReviewClaimInput) (*ClaimResponse, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	target, ok := claim.ParseStatus(in.Status)
	if !ok || !target.IsReviewTarget() {
		return nil, shared.NewValidationError("status must be approved, rejected or revision")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "claim", "review",
		attribute.String("claim.id", id.String()),
		attribute.String("claim.target_status", string(target)))
	var (
		reviewed *claim.Claim
		credited int
		credit   *ledger.Credit
	)
	err := s.tx.Execute(ctx, func(repos transaction.Repositories) error {
		c, err := repos.Claims().FindByID(ctx, id)
		if err != nil {
			return notFoundAs(err, "claim")
		}

		from := c.Status
		points, err := c.Review(target, in.Note)
		if err != nil {
			return err
		}
		if err := repos.Claims().TransitionStatus(ctx, c, from); err != nil {
			return err
		}
		if target == claim.StatusApproved {
			if credit, err = s.ledger.ApplyApproval(ctx, repos.Students(), c.StudentID, points); err != nil {
				return err
			}
			credited = points
		}
		reviewed = c
		return nil
	})
	span.SetAttributes(attribute.Int("claim.credited", credited))
	telemetry.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Claim reviewed",
		zap.String("claim_id", reviewed.ID.String()),
		zap.String("status", string(reviewed.Status)),
		zap.Int("credited", credited))
	s.metrics.RecordClaimReviewed(ctx, reviewed.Status, credited)
	s.publishDomainEvents(ctx, reviewed, credit.Events()...)

	resp := s.enrich(ctx, []claim.Claim{*reviewed})
	return &resp[0], nil
}

// Delete removes a claim that has not been approved. Approved claims are part
// of the student's total and are refused with InvalidState. Evidence cleanup
// is best-effort and never blocks the deletion.
func (s *ClaimService) Delete(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	if err := access.RequireAdmin(p); err != nil {
		return err
	}

	c, err := s.claims.FindByID(ctx, id)
	if err != nil {
		return notFoundAs(err, "claim")
	}
	if !c.Status.CanDelete() {
		return shared.NewInvalidStateError("approved claims cannot be deleted")
	}
	// Guarded on the loaded status so a concurrent approval is never deleted
	if err := s.claims.DeleteIfStatus(ctx, id, c.Status); err != nil {
		return notFoundAs(err, "claim")
	}

	s.logger.Info("Claim deleted",
		zap.String("claim_id", id.String()),
		zap.String("status", string(c.Status)))
	s.discardFile(ctx, c.EvidenceFileID)
	return nil
}

// Evidence streams a claim's evidence file. The caller closes the reader.
func (s *ClaimService) Evidence(ctx context.Context, p *access.Principal, id uuid.UUID) (io.ReadCloser, string, error) {
	c, err := s.readable(ctx, p, id)
	if err != nil {
		return nil, "", err
	}
	if c.EvidenceFileID == "" {
		return nil, "", shared.NewNotFoundError("evidence")
	}

	rc, contentType, err := s.files.Read(ctx, c.EvidenceFileID)
	if err != nil {
		if errors.Is(err, filestore.ErrObjectNotFound) {
			return nil, "", shared.NewNotFoundError("evidence")
		}
		return nil, "", shared.NewStorageError("failed to read evidence", err)
	}
	return rc, contentType, nil
}

func (s *ClaimService) readable(ctx context.Context, p *access.Principal, id uuid.UUID) (*claim.Claim, error) {
	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	c, err := s.claims.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "claim")
	}
	if err := access.CanReadClaim(p, c); err != nil {
		return nil, err
	}
	return c, nil
}

// enrich attaches student and activity type summaries. Lookup failures only
// drop the summaries.
func (s *ClaimService) enrich(ctx context.Context, claims []claim.Claim) []ClaimResponse {
	studentIDs := make([]uuid.UUID, 0, len(claims))
	typeIDs := make([]uuid.UUID, 0, len(claims))
	seen := make(map[uuid.UUID]bool, len(claims)*2)
	for _, c := range claims {
		if !seen[c.StudentID] {
			seen[c.StudentID] = true
			studentIDs = append(studentIDs, c.StudentID)
		}
		if !seen[c.ActivityTypeID] {
			seen[c.ActivityTypeID] = true
			typeIDs = append(typeIDs, c.ActivityTypeID)
		}
	}

	studentsByID := make(map[uuid.UUID]*student.Student, len(studentIDs))
	if len(studentIDs) > 0 {
		found, err := s.students.FindByIDs(ctx, studentIDs)
		if err != nil {
			s.logger.Warn("Failed to load students for claims", zap.Error(err))
		}
		for i := range found {
			studentsByID[found[i].ID] = &found[i]
		}
	}

	typesByID := make(map[uuid.UUID]*activity.ActivityType, len(typeIDs))
	if len(typeIDs) > 0 {
		found, err := s.types.FindByIDs(ctx, typeIDs)
		if err != nil {
			s.logger.Warn("Failed to load activity types for claims", zap.Error(err))
		}
		for i := range found {
			typesByID[found[i].ID] = &found[i]
		}
	}

	out := make([]ClaimResponse, len(claims))
	for i := range claims {
		c := &claims[i]
		out[i] = ToClaimResponse(c, studentsByID[c.StudentID], typesByID[c.ActivityTypeID])
	}
	return out
}

// discardFile deletes a blob and only logs failures
func (s *ClaimService) discardFile(ctx context.Context, fileID string) {
	if fileID == "" {
		return
	}
	if err := s.files.Delete(ctx, fileID); err != nil && !errors.Is(err, filestore.ErrObjectNotFound) {
		s.logger.Warn("Failed to delete evidence file",
			zap.String("file_id", fileID),
			zap.Error(err))
	}
}

// publishDomainEvents publishes the pending events of a claim followed by
// any events raised alongside it, such as a ledger credit
func (s *ClaimService) publishDomainEvents(ctx context.Context, c *claim.Claim, related ...shared.DomainEvent) {
	events := append(append([]shared.DomainEvent(nil), c.GetDomainEvents()...), related...)
	c.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish claim events",
			zap.String("claim_id", c.ID.String()),
			zap.Error(err))
	}
}

// resolveSubmitter picks the student a new claim belongs to
func resolveSubmitter(p *access.Principal, requested *uuid.UUID) (uuid.UUID, error) {
	if err := access.RequireAuthenticated(p); err != nil {
		return uuid.Nil, err
	}
	if p.IsAdmin() {
		if requested == nil || *requested == uuid.Nil {
			return uuid.Nil, shared.NewValidationError("mahasiswa_id is required when an admin files a claim")
		}
		return *requested, nil
	}

	own, err := access.RequireStudent(p)
	if err != nil {
		return uuid.Nil, err
	}
	if requested != nil && *requested != uuid.Nil && *requested != own {
		return uuid.Nil, shared.NewForbiddenError("students can only file claims for themselves")
	}
	return own, nil
}

// notFoundAs names the missing entity on repository not-found errors
func notFoundAs(err error, entity string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError(entity)
	}
	return err
}
