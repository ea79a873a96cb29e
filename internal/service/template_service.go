package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/invoice-followups/internal/domain"
	"github.com/segyhp/invoice-followups/internal/repository"
	customError "github.com/segyhp/invoice-followups/pkg/errors"

	"github.com/sirupsen/logrus"
)

// templateVariables are the keys the generator fills for every follow-up
var templateVariables = map[string]bool{
	"clientName":    true,
	"amount":        true,
	"currency":      true,
	"dueDate":       true,
	"invoiceNumber": true,
	"daysOverdue":   true,
}

type TemplateService struct {
	templateRepo repository.TemplateRepository
	renderer     *TemplateRenderer
	logger       logrus.FieldLogger
	now          func() time.Time
}

func NewTemplateService(templateRepo repository.TemplateRepository, logger logrus.FieldLogger) *TemplateService {
	return &TemplateService{
		templateRepo: templateRepo,
		renderer:     NewTemplateRenderer(),
		logger:       logger,
		now:          time.Now,
	}
}

// Create stores a template. Placeholders outside the known variables are accepted and reported back.
func (s *TemplateService) Create(ctx context.Context, accountID uuid.UUID, req *domain.CreateTemplateRequest) (*domain.TemplateResponse, error) {
	now := s.now()
	template := &domain.Template{
		ID:        uuid.New(),
		AccountID: accountID,
		Name:      req.Name,
		Subject:   req.Subject,
		Body:      req.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.templateRepo.Create(ctx, template); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	placeholders := s.renderer.Placeholders(template.Subject + "\n" + template.Body)
	unknown := make([]string, 0)
	for _, key := range placeholders {
		if !templateVariables[key] {
			unknown = append(unknown, key)
		}
	}

	if len(unknown) > 0 {
		s.logger.WithFields(logrus.Fields{
			"template_id":  template.ID,
			"placeholders": unknown,
		}).Warn("template uses unknown placeholders")
	}

	return &domain.TemplateResponse{
		Template:            template,
		Placeholders:        placeholders,
		UnknownPlaceholders: unknown,
	}, nil
}
