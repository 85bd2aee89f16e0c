package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CategoryService handles category-related business operations
type CategoryService struct {
	categoryRepo   catalog.CategoryRepository
	productRepo    catalog.ProductRepository
	txManager      shared.TransactionManager
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(
	categoryRepo catalog.CategoryRepository,
	productRepo catalog.ProductRepository,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		txManager:    txManager,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *CategoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a root category, or a sub-category when ParentID is set
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error) {
	var (
		category *catalog.Category
		err      error
	)
	if req.ParentID != nil {
		parent, err := s.categoryRepo.FindByID(ctx, *req.ParentID)
		if err != nil {
			if shared.IsNotFound(err) {
				return nil, shared.NewDomainError("INVALID_PARENT", "Parent category not found")
			}
			return nil, err
		}
		category, err = catalog.NewSubCategory(req.Name, req.Slug, parent)
		if err != nil {
			return nil, err
		}
	} else {
		category, err = catalog.NewCategory(req.Name, req.Slug)
		if err != nil {
			return nil, err
		}
	}

	if err := s.ensureSlugFree(ctx, category.Slug, nil); err != nil {
		return nil, err
	}
	if req.Description != "" || req.ImageURL != "" {
		if err := category.Update(category.Name, category.Slug, req.Description, req.ImageURL); err != nil {
			return nil, err
		}
	}
	if req.SortOrder != nil {
		category.SetSortOrder(*req.SortOrder)
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	s.publish(ctx, category)

	s.logger.Info("Category created",
		zap.String("category_id", category.ID.String()),
		zap.String("slug", category.Slug),
		zap.Int("level", category.Level))
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// GetByID retrieves a category by ID
func (s *CategoryService) GetByID(ctx context.Context, id uuid.UUID) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// GetBySlug retrieves a category by slug
func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// List retrieves a page of categories
func (s *CategoryService) List(ctx context.Context, filter CategoryListFilter) (shared.Paginated[CategoryResponse], error) {
	domainFilter := shared.DefaultFilter()
	domainFilter.OrderBy = "path"
	domainFilter.OrderDir = "asc"
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	switch filter.ParentID {
	case "":
	case "root":
		domainFilter.Filters["parent_id"] = "root"
	default:
		parentID, err := uuid.Parse(filter.ParentID)
		if err != nil {
			return shared.Paginated[CategoryResponse]{}, shared.NewDomainError("INVALID_INPUT", "parent_id must be a UUID or \"root\"")
		}
		domainFilter.Filters["parent_id"] = parentID
	}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}

	categories, err := s.categoryRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[CategoryResponse]{}, err
	}
	total, err := s.categoryRepo.Count(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[CategoryResponse]{}, err
	}

	items := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		items[i] = ToCategoryResponse(c)
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

// GetTree returns the active categories arranged as a tree
func (s *CategoryService) GetTree(ctx context.Context) ([]CategoryTreeNode, error) {
	categories, err := s.categoryRepo.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}
	return toTreeNodes(catalog.BuildTree(categories)), nil
}

// Update updates the descriptive fields of a category
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := category.Update(req.Name, req.Slug, req.Description, req.ImageURL); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, category.Slug, &category.ID); err != nil {
		return nil, err
	}
	if req.SortOrder != nil {
		category.SetSortOrder(*req.SortOrder)
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	s.publish(ctx, category)

	resp := ToCategoryResponse(category)
	return &resp, nil
}

// Move re-parents a category together with its whole subtree
func (s *CategoryService) Move(ctx context.Context, id uuid.UUID, req MoveCategoryRequest) (*CategoryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "category", "move", "category_id", id.String())
	defer span.End()

	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}

	var parent *catalog.Category
	if req.ParentID != nil {
		parent, err = s.categoryRepo.FindByID(ctx, *req.ParentID)
		if err != nil {
			if shared.IsNotFound(err) {
				return nil, shared.NewDomainError("INVALID_PARENT", "Parent category not found")
			}
			return nil, telemetry.RecordError(span, err)
		}
	}

	descendants, err := s.categoryRepo.FindDescendants(ctx, category)
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}
	subtreeDepth := 0
	for _, d := range descendants {
		if depth := d.Level - category.Level; depth > subtreeDepth {
			subtreeDepth = depth
		}
	}

	oldLevel := category.Level
	oldPath, err := category.MoveTo(parent, subtreeDepth)
	if err != nil {
		return nil, err
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.categoryRepo.Save(ctx, category); err != nil {
			return err
		}
		if len(descendants) == 0 {
			return nil
		}
		return s.categoryRepo.ReplacePathPrefix(ctx, oldPath, category.Path, category.Level-oldLevel)
	})
	if err != nil {
		return nil, telemetry.RecordError(span, err)
	}
	s.publish(ctx, category)

	s.logger.Info("Category moved",
		zap.String("category_id", category.ID.String()),
		zap.String("old_path", oldPath),
		zap.String("new_path", category.Path),
		zap.Int("descendants", len(descendants)))
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// Activate activates a category
func (s *CategoryService) Activate(ctx context.Context, id uuid.UUID) (*CategoryResponse, error) {
	return s.changeStatus(ctx, id, (*catalog.Category).Activate)
}

// Deactivate deactivates a category
func (s *CategoryService) Deactivate(ctx context.Context, id uuid.UUID) (*CategoryResponse, error) {
	return s.changeStatus(ctx, id, (*catalog.Category).Deactivate)
}

func (s *CategoryService) changeStatus(ctx context.Context, id uuid.UUID, apply func(*catalog.Category) error) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(category); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	s.publish(ctx, category)
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// Delete deletes a category that has neither sub-categories nor products
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	hasChildren, err := s.categoryRepo.HasChildren(ctx, id)
	if err != nil {
		return err
	}
	if hasChildren {
		return shared.NewDomainError("HAS_CHILDREN", "Cannot delete category with sub-categories")
	}

	count, err := s.productRepo.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("HAS_PRODUCTS", "Cannot delete category with products")
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Category deleted", zap.String("category_id", id.String()), zap.String("slug", category.Slug))
	return nil
}

// SubtreeIDs returns the ID of the category and of all its descendants
func (s *CategoryService) SubtreeIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return subtreeIDs(ctx, s.categoryRepo, category)
}

func subtreeIDs(ctx context.Context, repo catalog.CategoryRepository, category *catalog.Category) ([]uuid.UUID, error) {
	descendants, err := repo.FindDescendants(ctx, category)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(descendants)+1)
	ids = append(ids, category.ID)
	for _, d := range descendants {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func (s *CategoryService) ensureSlugFree(ctx context.Context, slug string, excludeID *uuid.UUID) error {
	exists, err := s.categoryRepo.ExistsBySlug(ctx, slug, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "Category with this slug already exists")
	}
	return nil
}

func (s *CategoryService) publish(ctx context.Context, category *catalog.Category) {
	if err := shared.PublishAndClear(ctx, s.eventPublisher, category); err != nil {
		s.logger.Warn("Failed to publish category events", zap.String("category_id", category.ID.String()), zap.Error(err))
	}
}
