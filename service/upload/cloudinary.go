package upload

import (
	"context"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"
)

// Uploader pushes base64 data-URI images to cloudinary and returns the
// hosted URL stored on the message/profile document. A nil *Uploader
// reports upload as unavailable.
type Uploader struct {
	cld *cloudinary.Cloudinary
}

var ErrNotConfigured = errors.New("image upload not configured")

// New builds an uploader from a CLOUDINARY_URL; empty disables uploads.
func New(cloudinaryURL string) (*Uploader, error) {
	if cloudinaryURL == "" {
		return nil, nil
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, errors.Wrap(err, "cloudinary init")
	}
	return &Uploader{cld: cld}, nil
}

// UploadImage accepts a data URI (or remote URL) and returns the secure URL.
func (u *Uploader) UploadImage(ctx context.Context, dataURI string) (string, error) {
	if u == nil {
		return "", ErrNotConfigured
	}
	res, err := u.cld.Upload.Upload(ctx, dataURI, uploader.UploadParams{Folder: "linkchat"})
	if err != nil {
		return "", errors.Wrap(err, "cloudinary upload")
	}
	return res.SecureURL, nil
}
