package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProductImage is an image stored in object storage and attached to a product
type ProductImage struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	ObjectKey string
	URL       string
	AltText   string
	SortOrder int
	IsPrimary bool
}

// AllowedImageContentTypes lists the MIME types accepted for product images
var AllowedImageContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageObjectKey builds the storage key of a new product image
func ImageObjectKey(productID uuid.UUID, contentType string) (string, error) {
	ext, ok := AllowedImageContentTypes[strings.ToLower(contentType)]
	if !ok {
		return "", shared.NewDomainError("INVALID_CONTENT_TYPE", "Unsupported image type: "+contentType)
	}
	return "products/" + productID.String() + "/" + uuid.New().String() + ext, nil
}

// AddImage attaches an uploaded image. The first image becomes primary.
func (p *Product) AddImage(objectKey, url, altText string) (*ProductImage, error) {
	if len(p.Images) >= MaxProductImages {
		return nil, shared.NewDomainError("TOO_MANY_IMAGES", "A product cannot have more than 12 images")
	}
	if objectKey == "" || !strings.HasPrefix(objectKey, "products/"+p.ID.String()+"/") {
		return nil, shared.NewDomainError("INVALID_OBJECT_KEY", "Image key does not belong to this product")
	}
	for _, img := range p.Images {
		if img.ObjectKey == objectKey {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Image already attached")
		}
	}

	p.Images = append(p.Images, ProductImage{
		ID:        uuid.New(),
		ProductID: p.ID,
		ObjectKey: objectKey,
		URL:       url,
		AltText:   strings.TrimSpace(altText),
		SortOrder: len(p.Images),
		IsPrimary: len(p.Images) == 0,
	})
	p.Touch()
	return &p.Images[len(p.Images)-1], nil
}

// SetPrimaryImage makes one image the primary image
func (p *Product) SetPrimaryImage(imageID uuid.UUID) error {
	found := false
	for i := range p.Images {
		if p.Images[i].ID == imageID {
			found = true
		}
	}
	if !found {
		return shared.NewDomainError("NOT_FOUND", "Image not found")
	}
	for i := range p.Images {
		p.Images[i].IsPrimary = p.Images[i].ID == imageID
	}
	p.Touch()
	return nil
}

// RemoveImage detaches an image and returns it so the object can be deleted.
// When the primary image is removed the next one is promoted.
func (p *Product) RemoveImage(imageID uuid.UUID) (*ProductImage, error) {
	idx := -1
	for i := range p.Images {
		if p.Images[i].ID == imageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, shared.NewDomainError("NOT_FOUND", "Image not found")
	}

	removed := p.Images[idx]
	p.Images = append(p.Images[:idx], p.Images[idx+1:]...)
	for i := range p.Images {
		p.Images[i].SortOrder = i
	}
	if removed.IsPrimary && len(p.Images) > 0 {
		p.Images[0].IsPrimary = true
	}
	p.Touch()
	return &removed, nil
}

// PrimaryImageURL returns the URL of the primary image, if any
func (p *Product) PrimaryImageURL() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	return ""
}
