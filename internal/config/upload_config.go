package config

import "github.com/spf13/viper"

// UploadProvider selects where profile pictures are uploaded.
type UploadProvider string

const (
	UploadCloudinary  UploadProvider = "cloudinary"
	UploadObjectStore UploadProvider = "s3"
)

type UploadConfig interface {
	GetUploadProvider() UploadProvider
	GetMaxUploadBytes() int64
	GetCloudinary() CloudinarySettings
	GetObjectStore() ObjectStoreSettings
}

type CloudinarySettings struct {
	BaseURL      string
	CloudName    string
	UploadPreset string
}

type ObjectStoreSettings struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	UseSSL        bool
	PublicBaseURL string
}

type Upload struct {
	v *viper.Viper
}

var _ UploadConfig = Upload{}

func (u Upload) GetUploadProvider() UploadProvider {
	if UploadProvider(u.v.GetString("upload.provider")) == UploadObjectStore {
		return UploadObjectStore
	}
	return UploadCloudinary
}

func (u Upload) GetMaxUploadBytes() int64 {
	return u.v.GetInt64("upload.max_bytes")
}

func (u Upload) GetCloudinary() CloudinarySettings {
	return CloudinarySettings{
		BaseURL:      u.v.GetString("upload.cloudinary_url"),
		CloudName:    u.v.GetString("upload.cloud_name"),
		UploadPreset: u.v.GetString("upload.upload_preset"),
	}
}

func (u Upload) GetObjectStore() ObjectStoreSettings {
	return ObjectStoreSettings{
		Endpoint:      u.v.GetString("upload.endpoint"),
		AccessKey:     u.v.GetString("upload.access_key"),
		SecretKey:     u.v.GetString("upload.secret_key"),
		Bucket:        u.v.GetString("upload.bucket"),
		Region:        u.v.GetString("upload.region"),
		UseSSL:        u.v.GetBool("upload.use_ssl"),
		PublicBaseURL: u.v.GetString("upload.public_base_url"),
	}
}
