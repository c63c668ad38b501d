package domain

// ImageKind enumerates the raster formats accepted for upload.
type ImageKind string

const (
	ImageKindJPEG    ImageKind = "jpeg"
	ImageKindPNG     ImageKind = "png"
	ImageKindWebP    ImageKind = "webp"
	ImageKindUnknown ImageKind = "unknown"
)

// UploadedAsset is a staged input image. It lives in the uploads directory
// until a failed transformation removes it or a history delete reclaims it.
type UploadedAsset struct {
	StoragePath      string
	Filename         string
	OriginalFilename string
	SizeBytes        int64
	Kind             ImageKind
}
