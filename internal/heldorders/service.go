package heldorders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/warunglabs/kasirpos-backend/internal/cart"
	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
)

type repository interface {
	Create(ctx context.Context, order *models.HeldOrder) error
	List(ctx context.Context, userID uuid.UUID) ([]models.HeldOrder, error)
	Take(ctx context.Context, id uuid.UUID) (*models.HeldOrder, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

// Service suspends and resumes carts. Names are display labels only and
// may repeat.
type Service interface {
	Hold(ctx context.Context, userID uuid.UUID, name string, lines []cart.Line) (*models.HeldOrder, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.HeldOrder, error)
	Recall(ctx context.Context, id uuid.UUID) ([]cart.Line, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo repository
	logg *logger.Logger
}

// NewService builds a held-order service backed by the provided stack.
func NewService(repo repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("held-order repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Hold snapshots the lines under a display name.
func (s *service) Hold(ctx context.Context, userID uuid.UUID, name string, lines []cart.Line) (*models.HeldOrder, error) {
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "held order name is required")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot hold an empty cart")
	}

	payload, err := json.Marshal(lines)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serializing cart snapshot")
	}

	order := &models.HeldOrder{
		Name:   name,
		Items:  payload,
		UserID: userID,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting held order")
	}
	s.logg.Info(ctx, "cart held")
	return order, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.HeldOrder, error) {
	rows, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing held orders")
	}
	return rows, nil
}

// Recall returns the snapshot lines and destroys the stored record. The
// caller is expected to replace the active cart with the result.
func (s *service) Recall(ctx context.Context, id uuid.UUID) ([]cart.Line, error) {
	order, err := s.repo.Take(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "held order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recalling held order")
	}

	var lines []cart.Line
	if err := json.Unmarshal(order.Items, &lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding cart snapshot")
	}
	s.logg.Info(ctx, "held order recalled")
	return lines, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting held order")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "held order not found")
	}
	return nil
}
