package handlers

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"stylestudio/internal/middleware"
	"stylestudio/internal/styles"
)

// Message keys double as the English text.
const (
	msgServerRunning      = "Server is running"
	msgUnauthorized       = "Authentication required"
	msgNoImage            = "No image file uploaded"
	msgNoImageHint        = "Ensure the form field name is \"image\""
	msgStyleRequired      = "Transformation style is required"
	msgStyleRequiredHint  = "Include \"style\" in request body"
	msgInvalidStyle       = "Invalid transformation style"
	msgValidStyles        = "Valid styles: %s"
	msgTooLarge           = "Image exceeds the %d MB upload limit"
	msgUnsupportedType    = "Unsupported image type"
	msgUnsupportedHint    = "Upload a JPEG, PNG or WebP image"
	msgEmptyUpload        = "Uploaded image is empty"
	msgTransformFailed    = "Image transformation failed"
	msgTryDifferent       = "The image processing library encountered an error. Try a different image or style."
	msgRetryLater         = "The image service is busy or unavailable. Please retry later."
	msgTransformError     = "Error transforming image"
	msgTransformed        = "Image transformed successfully"
	msgHistoryNotFound    = "History item not found"
	msgHistoryDeleted     = "History item deleted successfully"
	msgServerError        = "Server error"
	msgInvalidRequestForm = "Request must be multipart/form-data"
)

var indonesian = map[string]string{
	msgServerRunning:      "Server berjalan",
	msgUnauthorized:       "Autentikasi diperlukan",
	msgNoImage:            "Tidak ada file gambar yang diunggah",
	msgNoImageHint:        "Pastikan nama field formulir adalah \"image\"",
	msgStyleRequired:      "Gaya transformasi wajib diisi",
	msgStyleRequiredHint:  "Sertakan \"style\" pada body permintaan",
	msgInvalidStyle:       "Gaya transformasi tidak valid",
	msgValidStyles:        "Gaya yang valid: %s",
	msgTooLarge:           "Ukuran gambar melebihi batas unggah %d MB",
	msgUnsupportedType:    "Jenis gambar tidak didukung",
	msgUnsupportedHint:    "Unggah gambar JPEG, PNG, atau WebP",
	msgEmptyUpload:        "Gambar yang diunggah kosong",
	msgTransformFailed:    "Transformasi gambar gagal",
	msgTryDifferent:       "Pustaka pemrosesan gambar mengalami kesalahan. Coba gambar atau gaya lain.",
	msgRetryLater:         "Layanan gambar sedang sibuk atau tidak tersedia. Silakan coba lagi nanti.",
	msgTransformError:     "Terjadi kesalahan saat mentransformasi gambar",
	msgTransformed:        "Gambar berhasil ditransformasi",
	msgHistoryNotFound:    "Riwayat tidak ditemukan",
	msgHistoryDeleted:     "Riwayat berhasil dihapus",
	msgServerError:        "Kesalahan server",
	msgInvalidRequestForm: "Permintaan harus berupa multipart/form-data",
}

func init() {
	for key, text := range indonesian {
		_ = message.SetString(language.Indonesian, key, text)
	}
}

func localeTag(locale string) language.Tag {
	if locale == "id" {
		return language.Indonesian
	}
	return language.English
}

// t renders key in the request locale.
func (a *App) t(r *http.Request, key string, args ...any) string {
	p := message.NewPrinter(localeTag(middleware.LocaleFromContext(r.Context())))
	return p.Sprintf(key, args...)
}

func (a *App) validStylesHint(r *http.Request) string {
	return a.t(r, msgValidStyles, strings.Join(styles.Names(), ", "))
}
