// Package student implements the mahasiswa use cases: registration with a
// login user, profile maintenance, photos, the CV and deletion.
package student

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/application/access"
	"github.com/poinmhs/backend/internal/application/filestore"
	"github.com/poinmhs/backend/internal/application/ledger"
	"github.com/poinmhs/backend/internal/application/transaction"
	"github.com/poinmhs/backend/internal/domain/activity"
	"github.com/poinmhs/backend/internal/domain/claim"
	"github.com/poinmhs/backend/internal/domain/identity"
	"github.com/poinmhs/backend/internal/domain/shared"
	"github.com/poinmhs/backend/internal/domain/student"
	"github.com/poinmhs/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CVRenderer prints a web page to PDF. authToken, when set, is sent as the
// session cookie so the page can load protected data.
type CVRenderer interface {
	RenderPDF(ctx context.Context, url, authToken string) ([]byte, error)
}

// StudentService handles student operations
type StudentService struct {
	students       student.StudentRepository
	claims         claim.ClaimRepository
	types          activity.ActivityTypeRepository
	tx             transaction.Scope
	files          filestore.Store
	ledger         *ledger.PointLedger
	renderer       CVRenderer
	cvBaseURL      string
	photoPolicy    filestore.Policy
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(
	students student.StudentRepository,
	claims claim.ClaimRepository,
	types activity.ActivityTypeRepository,
	tx transaction.Scope,
	files filestore.Store,
	logger *zap.Logger,
) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		students:    students,
		claims:      claims,
		types:       types,
		tx:          tx,
		files:       files,
		ledger:      ledger.NewPointLedger(logger),
		photoPolicy: filestore.DefaultPhotoPolicy(),
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *StudentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetCVRenderer enables PDF export of the CV page served at baseURL/cv/<id>
func (s *StudentService) SetCVRenderer(r CVRenderer, baseURL string) {
	s.renderer = r
	s.cvBaseURL = strings.TrimRight(baseURL, "/")
}

// SetPhotoPolicy overrides the accepted photo types and size
func (s *StudentService) SetPhotoPolicy(p filestore.Policy) {
	s.photoPolicy = p
}

// Create registers a student together with a login user whose identifier
// and initial password are the NIM
func (s *StudentService) Create(ctx context.Context, p *access.Principal, req CreateStudentRequest, photo *filestore.Upload) (*StudentResponse, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}

	st, err := student.NewStudent(req.NIM, req.ProfileRequest.toDomain())
	if err != nil {
		return nil, err
	}
	if req.TargetPoin != nil {
		if err := st.SetTarget(*req.TargetPoin); err != nil {
			return nil, err
		}
	}
	exists, err := s.students.ExistsByNIM(ctx, st.NIM)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExist, "nim "+st.NIM+" is already registered")
	}

	if photo != nil {
		fileID, err := s.storePhoto(ctx, photo)
		if err != nil {
			return nil, err
		}
		st.ReplacePhoto(fileID)
	}

	err = s.tx.Execute(ctx, func(repos transaction.Repositories) error {
		if err := repos.Students().Save(ctx, st); err != nil {
			return err
		}
		taken, err := repos.Users().ExistsByIdentifier(ctx, st.NIM)
		if err != nil {
			return err
		}
		if taken {
			return shared.NewDomainError(shared.CodeAlreadyExist, "a login with identifier "+st.NIM+" already exists")
		}
		u, err := identity.NewStudentUser(st.ID, st.NIM, st.Profile.Name)
		if err != nil {
			return err
		}
		return repos.Users().Save(ctx, u)
	})
	if err != nil {
		s.discardFile(ctx, st.FotoFileID)
		return nil, err
	}

	s.logger.Info("Student created",
		zap.String("student_id", st.ID.String()),
		zap.String("nim", st.NIM))
	s.publishDomainEvents(ctx, st)

	resp := ToStudentResponse(st)
	return &resp, nil
}

// GetByID returns a student to an admin or to the student themselves
func (s *StudentService) GetByID(ctx context.Context, p *access.Principal, id uuid.UUID) (*StudentResponse, error) {
	st, err := s.readable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	resp := ToStudentResponse(st)
	return &resp, nil
}

// Me returns the caller's own student record
func (s *StudentService) Me(ctx context.Context, p *access.Principal) (*StudentResponse, error) {
	id, err := access.RequireStudent(p)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, p, id)
}

// List returns students ranked by total_poin, then order_index
func (s *StudentService) List(ctx context.Context, p *access.Principal, f StudentListFilter) ([]StudentResponse, int64, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, 0, err
	}

	filter := shared.DefaultFilter()
	filter.OrderBy = "total_poin"
	filter.Search = f.Search
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = min(f.PageSize, 100)
	}

	students, err := s.students.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.students.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]StudentResponse, len(students))
	for i := range students {
		out[i] = ToStudentResponse(&students[i])
	}
	return out, total, nil
}

// Update edits the profile, target and ordering of a student. A new photo,
// when given, replaces the old one. total_poin is never written here.
func (s *StudentService) Update(ctx context.Context, p *access.Principal, id uuid.UUID, req UpdateStudentRequest, photo *filestore.Upload) (*StudentResponse, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	st, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := st.UpdateProfile(req.ProfileRequest.toDomain()); err != nil {
		return nil, err
	}
	if req.TargetPoin != nil {
		if err := st.SetTarget(*req.TargetPoin); err != nil {
			return nil, err
		}
	}
	if req.OrderIndex != nil {
		st.SetOrderIndex(*req.OrderIndex)
	}

	var newFileID, oldFileID string
	if photo != nil {
		if newFileID, err = s.storePhoto(ctx, photo); err != nil {
			return nil, err
		}
		oldFileID = st.ReplacePhoto(newFileID)
	}

	if err := s.students.Save(ctx, st); err != nil {
		s.discardFile(ctx, newFileID)
		return nil, err
	}
	s.discardFile(ctx, oldFileID)

	s.logger.Info("Student updated",
		zap.String("student_id", st.ID.String()),
		zap.String("nim", st.NIM))

	// Save never writes total_poin, so reload to report the stored value
	fresh, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToStudentResponse(fresh)
	return &resp, nil
}

// Delete removes a student with their login and claims in one transaction.
// Photo and evidence cleanup is best-effort.
func (s *StudentService) Delete(ctx context.Context, p *access.Principal, id uuid.UUID) error {
	if err := access.RequireAdmin(p); err != nil {
		return err
	}

	var (
		deleted  *student.Student
		evidence []string
	)
	err := s.tx.Execute(ctx, func(repos transaction.Repositories) error {
		st, err := repos.Students().FindByID(ctx, id)
		if err != nil {
			return notFoundAs(err, "student")
		}
		if evidence, err = repos.Claims().EvidenceFileIDsByStudent(ctx, id); err != nil {
			return err
		}
		if err := repos.Claims().DeleteByStudent(ctx, id); err != nil {
			return err
		}
		if err := repos.Users().DeleteByStudent(ctx, id); err != nil {
			return err
		}
		if err := repos.Students().Delete(ctx, id); err != nil {
			return err
		}
		deleted = st
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Student deleted",
		zap.String("student_id", id.String()),
		zap.String("nim", deleted.NIM),
		zap.Int("claims_evidence", len(evidence)))
	s.discardFile(ctx, deleted.FotoFileID)
	for _, fileID := range evidence {
		s.discardFile(ctx, fileID)
	}
	return nil
}

// Photo streams a student's photo. The caller closes the reader.
func (s *StudentService) Photo(ctx context.Context, p *access.Principal, id uuid.UUID) (io.ReadCloser, string, error) {
	st, err := s.readable(ctx, p, id)
	if err != nil {
		return nil, "", err
	}
	if st.FotoFileID == "" {
		return nil, "", shared.NewNotFoundError("photo")
	}
	rc, contentType, err := s.files.Read(ctx, st.FotoFileID)
	if err != nil {
		if errors.Is(err, filestore.ErrObjectNotFound) {
			return nil, "", shared.NewNotFoundError("photo")
		}
		return nil, "", shared.NewStorageError("failed to read photo", err)
	}
	return rc, contentType, nil
}

// CV returns the biodata and approved activities grouped by CV section
func (s *StudentService) CV(ctx context.Context, p *access.Principal, id uuid.UUID) (*CVResponse, error) {
	st, err := s.readable(ctx, p, id)
	if err != nil {
		return nil, err
	}
	approved, err := s.claims.FindApprovedByStudent(ctx, id)
	if err != nil {
		return nil, err
	}

	typeIDs := make([]uuid.UUID, 0, len(approved))
	for _, c := range approved {
		typeIDs = append(typeIDs, c.ActivityTypeID)
	}
	types := make(map[uuid.UUID]*activity.ActivityType, len(typeIDs))
	if len(typeIDs) > 0 {
		found, err := s.types.FindByIDs(ctx, typeIDs)
		if err != nil {
			return nil, err
		}
		for i := range found {
			types[found[i].ID] = &found[i]
		}
	}
	return buildCV(st, approved, types), nil
}

// CVPDF prints the CV page and returns the PDF with its download name
func (s *StudentService) CVPDF(ctx context.Context, p *access.Principal, id uuid.UUID, authToken string) ([]byte, string, error) {
	st, err := s.readable(ctx, p, id)
	if err != nil {
		return nil, "", err
	}
	if s.renderer == nil {
		return nil, "", shared.NewInvalidStateError("cv printing is not configured")
	}

	url := s.cvBaseURL + "/cv/" + st.ID.String()
	var pdf []byte
	telemetry.WithOperationLabel(ctx, "cv_render", func(ctx context.Context) {
		pdf, err = s.renderer.RenderPDF(ctx, url, authToken)
	})
	if err != nil {
		s.logger.Error("Failed to render CV",
			zap.String("student_id", st.ID.String()),
			zap.String("url", url),
			zap.Error(err))
		return nil, "", shared.WrapDomainError(shared.CodeStorage, "failed to generate CV PDF", err)
	}
	return pdf, CVFileName(st.NIM, st.Profile.Name), nil
}

// VerifyPoints compares a student's stored total with their approved claims
func (s *StudentService) VerifyPoints(ctx context.Context, p *access.Principal, id uuid.UUID) (*ledger.Discrepancy, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	return s.ledger.Verify(ctx, s.students, s.claims, id)
}

func (s *StudentService) readable(ctx context.Context, p *access.Principal, id uuid.UUID) (*student.Student, error) {
	if err := access.CanReadStudent(p, id); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *StudentService) find(ctx context.Context, id uuid.UUID) (*student.Student, error) {
	st, err := s.students.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "student")
	}
	return st, nil
}

func (s *StudentService) storePhoto(ctx context.Context, photo *filestore.Upload) (string, error) {
	if err := s.photoPolicy.Check(photo); err != nil {
		return "", shared.NewValidationError("foto: %s", err.Error())
	}
	fileID, err := s.files.Store(ctx, filestore.FolderPhotos, photo.Data, photo.ContentType)
	if err != nil {
		s.logger.Error("Failed to store photo", zap.Error(err))
		return "", shared.NewUploadError(err)
	}
	return fileID, nil
}

// discardFile deletes a blob and only logs failures
func (s *StudentService) discardFile(ctx context.Context, fileID string) {
	if fileID == "" {
		return
	}
	if err := s.files.Delete(ctx, fileID); err != nil && !errors.Is(err, filestore.ErrObjectNotFound) {
		s.logger.Warn("Failed to delete file",
			zap.String("file_id", fileID),
			zap.Error(err))
	}
}

func (s *StudentService) publishDomainEvents(ctx context.Context, st *student.Student) {
	events := st.GetDomainEvents()
	st.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish student events",
			zap.String("student_id", st.ID.String()),
			zap.Error(err))
	}
}

func notFoundAs(err error, entity string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError(entity)
	}
	return err
}
