package generation

import (
	"context"
	"fmt"
	"testing"

	"genstudio/internal/domain"
)

func TestMessageLocalizes(t *testing.T) {
	err := fmt.Errorf("wrap: %w", domain.ErrRemoteProvider)
	if got := Message(err, "en-US"); got != msgRemote {
		t.Fatalf("en = %q", got)
	}
	if got := Message(err, "id-ID,en;q=0.5"); got != "Layanan generasi gagal. Silakan coba lagi." {
		t.Fatalf("id = %q", got)
	}
	if got := Message(err, "fr"); got != msgRemote {
		t.Fatalf("unsupported locale = %q", got)
	}
}

func TestMessageForValidation(t *testing.T) {
	err := (&domain.GenerationRequest{Mode: domain.ModeSpeech}).Validate()
	if got := Message(err, "en"); got != "enter text to speak" {
		t.Fatalf("en = %q", got)
	}
	if got := Message(err, "id"); got != "masukkan teks yang akan diucapkan" {
		t.Fatalf("id = %q", got)
	}
}

func TestMessageKeepsUserInputLiteral(t *testing.T) {
	_, err := domain.ParseMode("%d%s")
	if err == nil {
		t.Fatal("expected ParseMode error")
	}
	if got := Message(err, "en"); got != `unsupported mode "%d%s"` {
		t.Fatalf("en = %q", got)
	}
}

func TestCodeTaxonomy(t *testing.T) {
	cases := map[error]string{
		domain.ErrCredentialRequired:                     "credential_required",
		domain.ErrAPIKeyExpired:                          "api_key_expired",
		fmt.Errorf("%w: x", domain.ErrEmptyResult):       "empty_result",
		fmt.Errorf("%w: x", domain.ErrDownloadFailed):    "download_failed",
		domain.ErrGenerationInFlight:                     "generation_in_flight",
		fmt.Errorf("%w: x", domain.ErrHistoryUnavailable): "history_unavailable",
		context.Canceled:                                 "cancelled",
		fmt.Errorf("other"):                              "internal_error",
	}
	for err, want := range cases {
		if got := Code(err); got != want {
			t.Fatalf("Code(%v) = %q, want %q", err, got, want)
		}
	}
}
