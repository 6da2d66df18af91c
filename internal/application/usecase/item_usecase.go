package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/supply-ledger/internal/application/dto"
	"github.com/jhoicas/supply-ledger/internal/domain"
	"github.com/jhoicas/supply-ledger/internal/domain/entity"
	"github.com/jhoicas/supply-ledger/internal/domain/repository"
)

// ItemUseCase registro de ítems. La cantidad nunca se edita aquí: solo cambia vía movimientos.
type ItemUseCase struct {
	repo  repository.ItemRepository
	clock func() time.Time
}

// NewItemUseCase construye el caso de uso.
func NewItemUseCase(repo repository.ItemRepository) *ItemUseCase {
	return &ItemUseCase{repo: repo, clock: time.Now}
}

// Register crea un ítem activo con saldo 0. El código es único.
func (uc *ItemUseCase) Register(ctx context.Context, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	code := strings.TrimSpace(in.Code)
	switch {
	case code == "":
		return nil, domain.NewValidationError("code", "requerido")
	case strings.TrimSpace(in.Name) == "":
		return nil, domain.NewValidationError("name", "requerido")
	case strings.TrimSpace(in.Unit) == "":
		return nil, domain.NewValidationError("unit", "requerida")
	case in.UnitCost.IsNegative():
		return nil, domain.NewValidationError("unit_cost", "no puede ser negativo")
	case in.ReorderLevel < 0:
		return nil, domain.NewValidationError("reorder_level", "no puede ser negativo")
	}
	existing, err := uc.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get item by code: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := uc.clock().UTC().Truncate(time.Microsecond)
	item := &entity.Item{
		ID:           uuid.New().String(),
		Code:         code,
		Name:         strings.TrimSpace(in.Name),
		Description:  strings.TrimSpace(in.Description),
		Unit:         strings.TrimSpace(in.Unit),
		Category:     strings.TrimSpace(in.Category),
		Location:     strings.TrimSpace(in.Location),
		UnitCost:     in.UnitCost,
		ReorderLevel: in.ReorderLevel,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return ToItemResponse(item), nil
}

// GetByID obtiene un ítem; ErrNotFound si no existe.
func (uc *ItemUseCase) GetByID(ctx context.Context, id string) (*dto.ItemResponse, error) {
	item, err := uc.require(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToItemResponse(item), nil
}

// GetByCode obtiene un ítem por su código de oficina.
func (uc *ItemUseCase) GetByCode(ctx context.Context, code string) (*dto.ItemResponse, error) {
	item, err := uc.repo.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return ToItemResponse(item), nil
}

// List lista ítems con filtros opcionales de categoría, estado y búsqueda.
func (uc *ItemUseCase) List(ctx context.Context, filter repository.ItemFilter, page dto.PageRequest) (*dto.ItemListResponse, error) {
	page.DefaultPage()
	switch filter.Status {
	case "", entity.StatusInStock, entity.StatusLowStock, entity.StatusOutOfStock:
	default:
		return nil, domain.NewValidationError("status", fmt.Sprintf("estado desconocido %q", filter.Status))
	}
	list, err := uc.repo.List(ctx, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ItemResponse, 0, len(list))
	for _, it := range list {
		items = append(items, *ToItemResponse(it))
	}
	return &dto.ItemListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// Update modifica atributos de identidad. No permite tocar la cantidad.
func (uc *ItemUseCase) Update(ctx context.Context, id string, in dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	item, err := uc.require(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, domain.NewValidationError("name", "no puede quedar vacío")
		}
		item.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		item.Description = strings.TrimSpace(*in.Description)
	}
	if in.Unit != nil {
		if strings.TrimSpace(*in.Unit) == "" {
			return nil, domain.NewValidationError("unit", "no puede quedar vacía")
		}
		item.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.Category != nil {
		item.Category = strings.TrimSpace(*in.Category)
	}
	if in.Location != nil {
		item.Location = strings.TrimSpace(*in.Location)
	}
	if in.UnitCost != nil {
		if in.UnitCost.IsNegative() {
			return nil, domain.NewValidationError("unit_cost", "no puede ser negativo")
		}
		item.UnitCost = *in.UnitCost
	}
	if in.ReorderLevel != nil {
		if *in.ReorderLevel < 0 {
			return nil, domain.NewValidationError("reorder_level", "no puede ser negativo")
		}
		item.ReorderLevel = *in.ReorderLevel
	}
	item.UpdatedAt = uc.clock().UTC().Truncate(time.Microsecond)
	if err := uc.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return ToItemResponse(item), nil
}

// Deactivate retira el ítem del registro activo; su historial se conserva.
func (uc *ItemUseCase) Deactivate(ctx context.Context, id string) (*dto.ItemResponse, error) {
	return uc.setActive(ctx, id, false)
}

// Activate reactiva un ítem retirado.
func (uc *ItemUseCase) Activate(ctx context.Context, id string) (*dto.ItemResponse, error) {
	return uc.setActive(ctx, id, true)
}

func (uc *ItemUseCase) setActive(ctx context.Context, id string, active bool) (*dto.ItemResponse, error) {
	item, err := uc.require(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Active == active {
		return ToItemResponse(item), nil
	}
	now := uc.clock().UTC().Truncate(time.Microsecond)
	if err := uc.repo.SetActive(ctx, id, active, now); err != nil {
		return nil, err
	}
	item.Active = active
	item.UpdatedAt = now
	return ToItemResponse(item), nil
}

func (uc *ItemUseCase) require(ctx context.Context, id string) (*entity.Item, error) {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// ToItemResponse convierte la entidad; el estado se recalcula en cada lectura.
func ToItemResponse(item *entity.Item) *dto.ItemResponse {
	return &dto.ItemResponse{
		ID:           item.ID,
		Code:         item.Code,
		Name:         item.Name,
		Description:  item.Description,
		Unit:         item.Unit,
		Category:     item.Category,
		Location:     item.Location,
		UnitCost:     item.UnitCost,
		ReorderLevel: item.ReorderLevel,
		OnHand:       item.OnHand,
		TotalValue:   item.TotalValue(),
		Status:       string(item.Status()),
		Active:       item.Active,
		Halted:       item.Halted,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}
