package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/joeg-ita/jobdrop/src/config"
	"github.com/joeg-ita/jobdrop/src/domain"
)

// resource types an "auto" upload can land in
var cloudinaryResourceTypes = []string{"image", "video", "raw"}

type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(cfg config.Cloudinary) (*CloudinaryStore, error) {
	if cfg.CloudName == "" || cfg.ApiKey == "" || cfg.ApiSecret == "" {
		return nil, errors.New("cloudinary cloud name, api key and api secret are required")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.ApiKey, cfg.ApiSecret)
	if err != nil {
		return nil, fmt.Errorf("error creating cloudinary client: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

// WithUploadPrefix points the client at another API host. Upload and Admin
// hold their own copy of the configuration, so each one is updated.
func (c *CloudinaryStore) WithUploadPrefix(prefix string) *CloudinaryStore {
	c.cld.Config.API.UploadPrefix = prefix
	c.cld.Upload.Config.API.UploadPrefix = prefix
	c.cld.Admin.Config.API.UploadPrefix = prefix
	return c
}

func (c *CloudinaryStore) Store(ctx context.Context, body io.Reader, opts domain.StoreOptions) (domain.StoredBlob, error) {
	resourceType := opts.ResourceType
	if resourceType == "" {
		resourceType = domain.ResourceTypeAuto
	}

	res, err := c.cld.Upload.Upload(ctx, body, uploader.UploadParams{
		Folder:       opts.Folder,
		ResourceType: resourceType,
	})
	if err != nil {
		return domain.StoredBlob{}, domain.NewUploadError(err)
	}
	if res == nil {
		return domain.StoredBlob{}, domain.NewUploadError(errors.New("cloudinary returned no result"))
	}
	if res.Error.Message != "" {
		return domain.StoredBlob{}, domain.NewUploadError(errors.New(res.Error.Message))
	}
	if res.SecureURL == "" {
		return domain.StoredBlob{}, domain.NewUploadError(errors.New("cloudinary returned no secure url"))
	}

	return domain.StoredBlob{
		URL:          res.SecureURL,
		Key:          res.PublicID,
		ResourceType: res.ResourceType,
		CreatedAt:    res.CreatedAt,
		Size:         int64(res.Bytes),
	}, nil
}

func (c *CloudinaryStore) List(ctx context.Context, folder string) ([]domain.StoredBlob, error) {
	prefix := strings.TrimSuffix(folder, "/") + "/"

	var blobs []domain.StoredBlob
	for _, rt := range cloudinaryResourceTypes {
		cursor := ""
		for {
			res, err := c.cld.Admin.Assets(ctx, admin.AssetsParams{
				AssetType:    api.AssetType(rt),
				DeliveryType: "upload",
				Prefix:       prefix,
				MaxResults:   500,
				NextCursor:   cursor,
			})
			if err != nil {
				return nil, fmt.Errorf("error listing %s assets: %w", rt, err)
			}
			if res.Error.Message != "" {
				return nil, fmt.Errorf("error listing %s assets: %s", rt, res.Error.Message)
			}
			for _, a := range res.Assets {
				blobs = append(blobs, domain.StoredBlob{
					URL:          a.SecureURL,
					Key:          a.PublicID,
					ResourceType: rt,
					CreatedAt:    a.CreatedAt,
					Size:         int64(a.Bytes),
				})
			}
			if res.NextCursor == "" {
				break
			}
			cursor = res.NextCursor
		}
	}
	return blobs, nil
}

func (c *CloudinaryStore) Delete(ctx context.Context, blob domain.StoredBlob) error {
	resourceType := blob.ResourceType
	if resourceType == "" || resourceType == domain.ResourceTypeAuto {
		resourceType = "image"
	}

	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     blob.Key,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("error deleting %s: %w", blob.Key, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("error deleting %s: %s", blob.Key, res.Error.Message)
	}
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("error deleting %s: unexpected result %q", blob.Key, res.Result)
	}
	return nil
}
