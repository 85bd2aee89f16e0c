package social

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	appsocial "github.com/storefront/backend/internal/application/social"
	"github.com/storefront/backend/internal/domain/social"
	"go.uber.org/zap"
)

// PlatformPublisher publishes to a single platform
type PlatformPublisher interface {
	Publish(ctx context.Context, req appsocial.PublishRequest) (string, error)
}

// FacebookPublisher posts to a page feed, or to its photos when media is set
type FacebookPublisher struct {
	client *GraphClient
}

// NewFacebookPublisher creates a page publisher
func NewFacebookPublisher(client *GraphClient) *FacebookPublisher {
	return &FacebookPublisher{client: client}
}

// Publish implements PlatformPublisher
func (p *FacebookPublisher) Publish(ctx context.Context, req appsocial.PublishRequest) (string, error) {
	var out struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	target := "/" + url.PathEscape(req.TargetID)
	if req.MediaURL != "" {
		caption := req.Content
		if req.Link != "" {
			caption = strings.TrimSpace(caption + "\n" + req.Link)
		}
		err := p.client.post(ctx, target+"/photos", map[string]string{
			"url":          req.MediaURL,
			"caption":      caption,
			"access_token": req.AccessToken,
		}, &out)
		if err != nil {
			return "", err
		}
	} else {
		form := map[string]string{
			"message":      req.Content,
			"access_token": req.AccessToken,
		}
		if req.Link != "" {
			form["link"] = req.Link
		}
		if err := p.client.post(ctx, target+"/feed", form, &out); err != nil {
			return "", err
		}
	}
	if out.PostID != "" {
		return out.PostID, nil
	}
	if out.ID == "" {
		return "", fmt.Errorf("graph api returned no post id")
	}
	return out.ID, nil
}

// InstagramPublisher creates a media container then publishes it
type InstagramPublisher struct {
	client *GraphClient
}

// NewInstagramPublisher creates an Instagram business account publisher
func NewInstagramPublisher(client *GraphClient) *InstagramPublisher {
	return &InstagramPublisher{client: client}
}

// Publish implements PlatformPublisher
func (p *InstagramPublisher) Publish(ctx context.Context, req appsocial.PublishRequest) (string, error) {
	if req.MediaURL == "" {
		return "", fmt.Errorf("instagram posts require a media url")
	}
	target := "/" + url.PathEscape(req.TargetID)
	caption := req.Content
	if req.Link != "" {
		caption = strings.TrimSpace(caption + "\n" + req.Link)
	}

	var container struct {
		ID string `json:"id"`
	}
	err := p.client.post(ctx, target+"/media", map[string]string{
		"image_url":    req.MediaURL,
		"caption":      caption,
		"access_token": req.AccessToken,
	}, &container)
	if err != nil {
		return "", err
	}
	if container.ID == "" {
		return "", fmt.Errorf("graph api returned no media container id")
	}

	var published struct {
		ID string `json:"id"`
	}
	err = p.client.post(ctx, target+"/media_publish", map[string]string{
		"creation_id":  container.ID,
		"access_token": req.AccessToken,
	}, &published)
	if err != nil {
		return "", err
	}
	return published.ID, nil
}

// Dispatcher selects the publisher by platform
type Dispatcher struct {
	publishers map[social.Platform]PlatformPublisher
	logger     *zap.Logger
}

// NewDispatcher creates a dispatcher with the Facebook and Instagram
// publishers backed by client
func NewDispatcher(client *GraphClient, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{publishers: map[social.Platform]PlatformPublisher{}, logger: logger}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	d.Register(social.PlatformFacebook, NewFacebookPublisher(client))
	d.Register(social.PlatformInstagram, NewInstagramPublisher(client))
	return d
}

// Register sets the publisher for a platform
func (d *Dispatcher) Register(platform social.Platform, p PlatformPublisher) {
	d.publishers[platform] = p
}

// Publish implements appsocial.Publisher
func (d *Dispatcher) Publish(ctx context.Context, platform social.Platform, req appsocial.PublishRequest) (string, error) {
	p, ok := d.publishers[platform]
	if !ok {
		return "", fmt.Errorf("no publisher for platform %s", platform)
	}
	id, err := p.Publish(ctx, req)
	if err != nil {
		d.logger.Warn("Publish failed", zap.String("platform", platform.String()), zap.String("target", req.TargetID), zap.Error(err))
		return "", err
	}
	d.logger.Info("Published", zap.String("platform", platform.String()), zap.String("external_post_id", id))
	return id, nil
}

var _ appsocial.Publisher = (*Dispatcher)(nil)
