package generation

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"genstudio/internal/domain"
)

var (
	supportedLocales = []language.Tag{language.English, language.Indonesian}
	localeMatcher    = language.NewMatcher(supportedLocales)
)

const (
	msgRemote        = "The generation service failed. Please try again."
	msgExpired       = "Your API key is invalid or has expired. Please select a valid key and try again."
	msgCredential    = "Select an API key to generate videos."
	msgEmpty         = "The provider returned no result. Please try again."
	msgDownload      = "The generated video could not be downloaded. Please try again."
	msgHistory       = "History could not be loaded. Showing the last known entries."
	msgStore         = "The history store could not save the change. Please try again."
	msgNotFound      = "The entry was not found."
	msgInFlight      = "A generation is already running. Wait for it to finish."
	msgCancelled     = "The generation was cancelled."
	msgUnknown       = "Something went wrong. Please try again."
	msgUpscaleImages = "only images can be upscaled"
)

func init() {
	id := language.Indonesian
	for key, text := range map[string]string{
		msgRemote:        "Layanan generasi gagal. Silakan coba lagi.",
		msgExpired:       "Kunci API Anda tidak valid atau sudah kedaluwarsa. Pilih kunci yang valid lalu coba lagi.",
		msgCredential:    "Pilih kunci API untuk membuat video.",
		msgEmpty:         "Penyedia tidak mengembalikan hasil. Silakan coba lagi.",
		msgDownload:      "Video yang dihasilkan tidak dapat diunduh. Silakan coba lagi.",
		msgHistory:       "Riwayat tidak dapat dimuat. Menampilkan entri terakhir yang diketahui.",
		msgStore:         "Penyimpanan riwayat gagal menyimpan perubahan. Silakan coba lagi.",
		msgNotFound:      "Entri tidak ditemukan.",
		msgInFlight:      "Masih ada proses generasi yang berjalan. Tunggu hingga selesai.",
		msgCancelled:     "Proses generasi dibatalkan.",
		msgUnknown:       "Terjadi kesalahan. Silakan coba lagi.",
		msgUpscaleImages: "hanya gambar yang dapat ditingkatkan resolusinya",

		"upload an image to edit":       "unggah gambar yang akan diedit",
		"describe the image to generate": "jelaskan gambar yang ingin dibuat",
		"describe the video to generate": "jelaskan video yang ingin dibuat",
		"upload an image to analyze":    "unggah gambar yang akan dianalisis",
		"enter a research question":     "masukkan pertanyaan riset",
		"enter a URL to summarize":      "masukkan URL yang akan diringkas",
		"enter text to speak":           "masukkan teks yang akan diucapkan",
		"record audio to transcribe":    "rekam audio yang akan ditranskripsi",
	} {
		_ = message.SetString(id, key, text)
	}
}

// Code returns the stable machine-readable code for err.
func Code(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsValidation(err):
		return "validation_failed"
	case errors.Is(err, domain.ErrCredentialRequired):
		return "credential_required"
	case errors.Is(err, domain.ErrAPIKeyExpired):
		return "api_key_expired"
	case errors.Is(err, domain.ErrGenerationInFlight):
		return "generation_in_flight"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrDownloadFailed):
		return "download_failed"
	case errors.Is(err, domain.ErrEmptyResult):
		return "empty_result"
	case errors.Is(err, domain.ErrRemoteProvider):
		return "provider_error"
	case errors.Is(err, domain.ErrHistoryUnavailable):
		return "history_unavailable"
	case errors.Is(err, domain.ErrStore):
		return "store_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal_error"
	}
}

// Message maps err to one user-facing message in the best supported match
// for locale.
func Message(err error, locale string) string {
	p := message.NewPrinter(matchLocale(locale))

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		// Messages may quote user input; escape it so only catalog text formats.
		return p.Sprintf(strings.ReplaceAll(ve.Message, "%", "%%"))
	}
	switch Code(err) {
	case "credential_required":
		return p.Sprintf(msgCredential)
	case "api_key_expired":
		return p.Sprintf(msgExpired)
	case "generation_in_flight":
		return p.Sprintf(msgInFlight)
	case "not_found":
		return p.Sprintf(msgNotFound)
	case "download_failed":
		return p.Sprintf(msgDownload)
	case "empty_result":
		return p.Sprintf(msgEmpty)
	case "provider_error":
		return p.Sprintf(msgRemote)
	case "history_unavailable":
		return p.Sprintf(msgHistory)
	case "store_error":
		return p.Sprintf(msgStore)
	case "cancelled":
		return p.Sprintf(msgCancelled)
	default:
		return p.Sprintf(msgUnknown)
	}
}

func matchLocale(locale string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, _ := localeMatcher.Match(tags...)
	return supportedLocales[idx]
}
