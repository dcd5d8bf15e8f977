package file

import (
	"context"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type FileUploader struct {
	cloud_name string
	api_key    string
	api_secret string
}

func New(cloud_name, api_key, api_secret string) *FileUploader {
	return &FileUploader{
		cloud_name: cloud_name,
		api_key:    api_key,
		api_secret: api_secret,
	}
}

// UploadFile pushes a local or multipart temp file to Cloudinary and
// returns the hosted URL. Used for KYC documents and deposit proofs.
func (f *FileUploader) UploadFile(fileName string) (string, error) {
	cld, err := cloudinary.NewFromParams(f.cloud_name, f.api_key, f.api_secret)
	if err != nil {
		return "", err
	}

	ctx := context.Background()
	uploadResult, err := cld.Upload.Upload(ctx, fileName, uploader.UploadParams{})
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
