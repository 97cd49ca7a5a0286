package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/compliancebinder/internal/common"
	"github.com/dmitrijs2005/compliancebinder/internal/dbx"
	"github.com/dmitrijs2005/compliancebinder/internal/logging"
	"github.com/dmitrijs2005/compliancebinder/internal/server/audit"
	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
	"github.com/dmitrijs2005/compliancebinder/internal/server/storage"
)

const (
	maxNoteLen         = 1000
	maxOriginalNameLen = 255
)

// UploadPolicy bounds what an upload may contain.
type UploadPolicy struct {
	MaxSizeBytes        int64
	AllowedContentTypes []string
}

var newStoredName = storage.NewStoredName

type DocumentService struct {
	deps   Deps
	guard  *Guard
	store  storage.Store
	policy UploadPolicy
	logger logging.Logger
}

func NewDocumentService(deps Deps, guard *Guard, store storage.Store, policy UploadPolicy, logger logging.Logger) *DocumentService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &DocumentService{deps: deps.withDefaults(), guard: guard, store: store, policy: policy, logger: logger}
}

// MaxSizeBytes is the upload limit enforced by Upload.
func (s *DocumentService) MaxSizeBytes() int64 {
	return s.policy.MaxSizeBytes
}

// Upload stores body under a fresh name and records it in the binder. The
// row is committed only after the body is fully written. If the insert
// fails the body is removed again.
func (s *DocumentService) Upload(ctx context.Context, user *models.User, binderID int64, original, contentType, note string, body io.Reader) (*models.Document, error) {
	contentType, err := storage.CheckContentType(contentType, s.policy.AllowedContentTypes)
	if err != nil {
		return nil, err
	}

	original = strings.TrimSpace(original)
	note = strings.TrimSpace(note)
	v := &common.ValidationError{}
	if utf8.RuneCountInString(note) > maxNoteLen {
		v.Add("note", fmt.Sprintf("must be at most %d characters", maxNoteLen))
	}
	if utf8.RuneCountInString(original) > maxOriginalNameLen {
		v.Add("file", fmt.Sprintf("file name must be at most %d characters", maxOriginalNameLen))
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	if original == "" {
		original = "file"
	}

	err = dbx.WithTx(ctx, s.deps.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := s.guard.Authorize(ctx, tx, user, KindBinder, binderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	storedName, err := newStoredName(original)
	if err != nil {
		return nil, fmt.Errorf("error naming upload: %w", err)
	}

	size, err := s.store.Put(ctx, storedName, body, s.policy.MaxSizeBytes)
	if err != nil {
		return nil, fmt.Errorf("error storing upload: %w", err)
	}

	var doc *models.Document
	err = dbx.WithTx(ctx, s.deps.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// ownership may have changed while the body was written
		if _, err := s.guard.Authorize(ctx, tx, user, KindBinder, binderID); err != nil {
			return err
		}
		var err error
		doc, err = s.deps.RepoManager.Documents(tx).Create(ctx, &models.Document{
			BinderID:     binderID,
			StoredName:   storedName,
			OriginalName: original,
			ContentType:  contentType,
			Size:         size,
			Note:         note,
			UploadedAt:   s.deps.now(),
		})
		return err
	})
	if err != nil {
		if derr := s.store.Delete(context.WithoutCancel(ctx), storedName); derr != nil {
			s.logger.Warn(ctx, "orphaned upload", "stored_name", storedName, "error", derr)
		}
		return nil, err
	}

	s.deps.Audit.Record(ctx, models.AuditEvent{
		Action:       audit.ActionDocUpload,
		ResourceType: string(KindDocument),
		ResourceID:   doc.ID,
		ActorID:      user.ID,
		ActorEmail:   user.Email,
		Detail:       fmt.Sprintf("%d bytes", doc.Size),
	})
	return doc, nil
}

// List returns the binder's documents, most recent upload first.
func (s *DocumentService) List(ctx context.Context, user *models.User, binderID int64) ([]*models.Document, error) {
	var out []*models.Document
	err := dbx.WithTx(ctx, s.deps.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.guard.Authorize(ctx, tx, user, KindBinder, binderID); err != nil {
			return err
		}
		var err error
		out, err = s.deps.RepoManager.Documents(tx).ListByBinder(ctx, binderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Open returns the document and its body. The caller closes the body.
func (s *DocumentService) Open(ctx context.Context, user *models.User, docID int64) (*models.Document, io.ReadCloser, error) {
	var doc *models.Document
	err := dbx.WithTx(ctx, s.deps.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.guard.Authorize(ctx, tx, user, KindDocument, docID); err != nil {
			return err
		}
		var err error
		doc, err = s.deps.RepoManager.Documents(tx).GetByID(ctx, docID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	body, err := s.store.Open(ctx, doc.StoredName)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening %s: %w", doc.StoredName, err)
	}

	s.deps.Audit.Record(ctx, models.AuditEvent{
		Action:       audit.ActionDocDownload,
		ResourceType: string(KindDocument),
		ResourceID:   doc.ID,
		ActorID:      user.ID,
		ActorEmail:   user.Email,
	})
	return doc, body, nil
}
