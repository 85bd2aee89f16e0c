package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// MaxCategoryDepth is the maximum depth of the category tree
// (category, sub-category, sub-sub-category).
const MaxCategoryDepth = 3

// CategoryStatus represents the status of a category
type CategoryStatus string

const (
	CategoryStatusActive   CategoryStatus = "active"
	CategoryStatusInactive CategoryStatus = "inactive"
)

// Category is a node of the catalog tree. Path is the materialized path of
// IDs from the root down to this node, separated by "/".
type Category struct {
	shared.BaseAggregateRoot
	Name        string
	Slug        string
	Description string
	ImageURL    string
	ParentID    *uuid.UUID
	Path        string
	Level       int
	SortOrder   int
	Status      CategoryStatus
}

// NewCategory creates a new root category
func NewCategory(name, slug string) (*Category, error) {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	s, err := normalizeSlug(slug, name)
	if err != nil {
		return nil, err
	}

	category := &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              s,
		Status:            CategoryStatusActive,
	}
	category.Path = category.ID.String()

	category.AddDomainEvent(NewCategoryChangedEvent(category, EventTypeCategoryCreated))
	return category, nil
}

// NewSubCategory creates a category under parent
func NewSubCategory(name, slug string, parent *Category) (*Category, error) {
	if parent == nil {
		return nil, shared.NewDomainError("INVALID_PARENT", "Parent category is required")
	}
	if parent.Level >= MaxCategoryDepth-1 {
		return nil, shared.NewDomainError("MAX_DEPTH_EXCEEDED", fmt.Sprintf("Category depth cannot exceed %d levels", MaxCategoryDepth))
	}

	category, err := NewCategory(name, slug)
	if err != nil {
		return nil, err
	}
	category.ClearDomainEvents()
	category.attachTo(parent)
	category.AddDomainEvent(NewCategoryChangedEvent(category, EventTypeCategoryCreated))
	return category, nil
}

func (c *Category) attachTo(parent *Category) {
	if parent == nil {
		c.ParentID = nil
		c.Level = 0
		c.Path = c.ID.String()
		return
	}
	parentID := parent.ID
	c.ParentID = &parentID
	c.Level = parent.Level + 1
	c.Path = parent.Path + "/" + c.ID.String()
}

// Update changes name, slug, description and image
func (c *Category) Update(name, slug, description, imageURL string) error {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return err
	}
	s, err := normalizeSlug(slug, name)
	if err != nil {
		return err
	}
	if len(imageURL) > 500 {
		return shared.NewDomainError("INVALID_IMAGE_URL", "Image URL cannot exceed 500 characters")
	}

	c.Name = name
	c.Slug = s
	c.Description = strings.TrimSpace(description)
	c.ImageURL = imageURL
	c.Touch()
	c.AddDomainEvent(NewCategoryChangedEvent(c, EventTypeCategoryUpdated))
	return nil
}

// SetSortOrder sets the display order among siblings
func (c *Category) SetSortOrder(order int) {
	c.SortOrder = order
	c.Touch()
}

// MoveTo re-parents the category. subtreeDepth is the number of levels
// below this node (0 for a leaf) and is used to enforce MaxCategoryDepth.
// It returns the old path so descendants can be re-rooted.
func (c *Category) MoveTo(parent *Category, subtreeDepth int) (string, error) {
	if parent != nil {
		if parent.ID == c.ID || c.IsAncestorOf(parent) {
			return "", shared.NewDomainError("INVALID_PARENT", "A category cannot be moved under itself or its descendants")
		}
		if parent.Level+1+subtreeDepth > MaxCategoryDepth-1 {
			return "", shared.NewDomainError("MAX_DEPTH_EXCEEDED", fmt.Sprintf("Category depth cannot exceed %d levels", MaxCategoryDepth))
		}
	}

	oldPath := c.Path
	c.attachTo(parent)
	c.Touch()
	c.AddDomainEvent(NewCategoryChangedEvent(c, EventTypeCategoryMoved))
	return oldPath, nil
}

// Activate activates the category
func (c *Category) Activate() error {
	if c.Status == CategoryStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Category is already active")
	}
	c.Status = CategoryStatusActive
	c.Touch()
	return nil
}

// Deactivate hides the category from the storefront
func (c *Category) Deactivate() error {
	if c.Status == CategoryStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Category is already inactive")
	}
	c.Status = CategoryStatusInactive
	c.Touch()
	return nil
}

// IsActive returns true if the category is active
func (c *Category) IsActive() bool {
	return c.Status == CategoryStatusActive
}

// IsRoot returns true if this is a top-level category
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// AncestorIDs returns the IDs on the path from the root to the parent
func (c *Category) AncestorIDs() []uuid.UUID {
	parts := strings.Split(c.Path, "/")
	if len(parts) <= 1 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(parts)-1)
	for _, p := range parts[:len(parts)-1] {
		if id, err := uuid.Parse(p); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// IsAncestorOf returns true if this category is an ancestor of other
func (c *Category) IsAncestorOf(other *Category) bool {
	if other == nil || other.Path == "" {
		return false
	}
	return strings.HasPrefix(other.Path, c.Path+"/")
}

// CategoryNode is a category with its children, used for tree rendering
type CategoryNode struct {
	Category *Category
	Children []*CategoryNode
}

// BuildTree arranges a flat list of categories into a forest ordered by
// SortOrder then Name. Categories whose parent is missing become roots.
func BuildTree(categories []*Category) []*CategoryNode {
	nodes := make(map[uuid.UUID]*CategoryNode, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &CategoryNode{Category: c}
	}

	roots := make([]*CategoryNode, 0)
	for _, c := range categories {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortNodes(roots)
	return roots
}

func sortNodes(nodes []*CategoryNode) {
	sort.SliceStable(nodes, func(i, j int) bool { return lessNode(nodes[i], nodes[j]) })
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

func lessNode(a, b *CategoryNode) bool {
	if a.Category.SortOrder != b.Category.SortOrder {
		return a.Category.SortOrder < b.Category.SortOrder
	}
	return a.Category.Name < b.Category.Name
}

func validateCategoryName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	return nil
}
