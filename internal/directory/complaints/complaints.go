// internal/directory/complaints/complaints.go
package complaints

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"visa-directory/internal/common/logger"
	"visa-directory/internal/common/metrics"
	"visa-directory/internal/common/validation"
	"visa-directory/internal/directory/profile"
	"visa-directory/internal/models"
)

var (
	ErrComplaintInvalid = errors.New("COMPLAINT_INVALID")
	ErrStoreFailed      = errors.New("COMPLAINT_STORE_FAILED")
)

var complaintSchema = validation.MustCompile(validation.ComplaintSchema)

// Input is a complaint as submitted by a visitor.
type Input struct {
	BusinessID    string `json:"businessId"`
	ReporterName  string `json:"reporterName"`
	ReporterEmail string `json:"reporterEmail"`
	Subject       string `json:"subject"`
	Description   string `json:"description"`
}

func (in Input) trimmed() Input {
	return Input{
		BusinessID:    strings.TrimSpace(in.BusinessID),
		ReporterName:  strings.TrimSpace(in.ReporterName),
		ReporterEmail: strings.TrimSpace(in.ReporterEmail),
		Subject:       strings.TrimSpace(in.Subject),
		Description:   strings.TrimSpace(in.Description),
	}
}

// InvalidError lists every field that failed validation.
type InvalidError struct {
	Fields []validation.ValidationError
}

func (e *InvalidError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("%s: %s", ErrComplaintInvalid, strings.Join(msgs, "; "))
}

func (e *InvalidError) Is(target error) bool {
	return target == ErrComplaintInvalid
}

// BusinessChecker answers whether a business id exists in the current directory.
type BusinessChecker interface {
	BusinessExists(ctx context.Context, businessID string) (bool, error)
}

// Notifier is told about every stored complaint. Failures never fail the filing.
type Notifier interface {
	Notify(ctx context.Context, c models.Complaint) error
}

type Service struct {
	store    Store
	checker  BusinessChecker
	notifier Notifier
	logger   logger.Logger
	now      func() time.Time
	newID    func() string
}

// NewService accepts a nil checker (no existence check) and a nil notifier.
func NewService(store Store, checker BusinessChecker, notifier Notifier, log logger.Logger) *Service {
	return &Service{
		store:    store,
		checker:  checker,
		notifier: notifier,
		logger:   logger.ForComponent(log, "complaints"),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// Validate checks a submission without storing it.
func Validate(in Input) error {
	result := complaintSchema.Validate(in.trimmed())
	if result.Valid {
		return nil
	}
	return &InvalidError{Fields: result.Errors}
}

// File validates, stores and announces one complaint.
func (s *Service) File(ctx context.Context, in Input) (*models.Complaint, error) {
	in = in.trimmed()
	if err := Validate(in); err != nil {
		metrics.ComplaintsFiled.WithLabelValues("invalid").Inc()
		return nil, err
	}

	if s.checker != nil {
		exists, err := s.checker.BusinessExists(ctx, in.BusinessID)
		if err != nil {
			return nil, fmt.Errorf("check business %s: %w", in.BusinessID, err)
		}
		if !exists {
			metrics.ComplaintsFiled.WithLabelValues("not_found").Inc()
			return nil, &profile.ProfileNotFoundError{Identifier: in.BusinessID}
		}
	}

	c := models.Complaint{
		ID:            s.newID(),
		BusinessID:    in.BusinessID,
		ReporterName:  in.ReporterName,
		ReporterEmail: in.ReporterEmail,
		Subject:       in.Subject,
		Description:   in.Description,
		Status:        models.ComplaintStatusSubmitted,
		CreatedAt:     s.now().UTC().Format(time.RFC3339),
	}

	if err := s.store.Insert(ctx, c); err != nil {
		metrics.ComplaintsFiled.WithLabelValues("store_failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, c); err != nil {
			s.logger.Warn("complaint notification failed", map[string]interface{}{
				"complaintId": c.ID,
				"businessId":  c.BusinessID,
				"error":       err,
			})
		}
	}

	metrics.ComplaintsFiled.WithLabelValues("filed").Inc()
	s.logger.Info("complaint filed", map[string]interface{}{
		"complaintId": c.ID,
		"businessId":  c.BusinessID,
	})
	return &c, nil
}

// ReportCounts returns complaint counts keyed by business id.
func (s *Service) ReportCounts(ctx context.Context) (map[string]int, error) {
	return s.store.CountByBusiness(ctx)
}
