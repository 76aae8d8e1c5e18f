package web

import (
	"errors"
	"net/http"

	generationAdapter "dersplan/internal/adapters/generation"
	"dersplan/internal/application/orchestrators"
	"dersplan/internal/domain/account"
	"dersplan/internal/domain/generation"
	"dersplan/internal/domain/plan"
	"dersplan/internal/domain/wizard"
)

// userMessages maps the errors the screens react to onto Turkish text.
// Errors not listed here come from the store or a remote service and are
// shown verbatim.
var userMessages = []struct {
	err error
	msg string
}{
	{account.ErrNoActiveSession, "Aktif oturum bulunamadı. Lütfen yeniden giriş yapın."},
	{account.ErrSessionExpired, "Oturumunuzun süresi doldu. Lütfen yeniden giriş yapın."},
	{plan.ErrNotFound, "Plan bulunamadı."},
	{orchestrators.ErrNotOwner, "Plan bulunamadı."},
	{plan.ErrEmptyTitle, "Plan başlığı boş bırakılamaz."},
	{plan.ErrEmptyDate, "Tarih seçin."},
	{plan.ErrInvalidDate, "Geçerli bir tarih girin."},
	{plan.ErrInvalidClassLevel, "Listeden bir sınıf seviyesi seçin."},
	{plan.ErrInvalidSubject, "Listeden bir ders seçin."},
	{plan.ErrEmptyTopic, "Müfredat konusu boş bırakılamaz."},
	{generation.ErrEmptyTopic, "Müfredat konusu boş bırakılamaz."},
	{plan.ErrDurationNotInteger, "Süre dakika cinsinden tam sayı olmalıdır."},
	{plan.ErrDurationOutOfRange, "Süre 15 ile 180 dakika arasında olmalıdır."},
	{wizard.ErrStageIncomplete, "Devam etmek için sınıf seviyesi ve ders seçin."},
	{wizard.ErrBusy, "Kayıt sürüyor, lütfen bekleyin."},
	{wizard.ErrNotReady, "Plan yalnızca son adımda kaydedilebilir."},
	{wizard.ErrFinished, "Bu plan zaten kaydedildi."},
	{wizard.ErrFirstStage, "Zaten ilk adımdasınız."},
	{wizard.ErrLastStage, "Zaten son adımdasınız."},
	{account.ErrInvalidCredentials, "E-posta adresi veya şifre hatalı."},
	{account.ErrAccountLocked, "Çok fazla başarısız deneme yapıldı. Lütfen 15 dakika sonra tekrar deneyin."},
	{account.ErrEmailNotConfirmed, "E-posta adresiniz henüz doğrulanmadı. Gelen kutunuzdaki bağlantıyı kullanın."},
	{account.ErrEmailTaken, "Bu e-posta adresiyle kayıtlı bir hesap zaten var."},
	{account.ErrEmptyEmail, "E-posta adresi gereklidir."},
	{account.ErrInvalidEmail, "Geçerli bir e-posta adresi girin."},
	{account.ErrEmptyPassword, "Şifre gereklidir."},
	{account.ErrPasswordTooShort, "Şifre en az 6 karakter olmalıdır."},
	{account.ErrTokenInvalid, "Etkinleştirme bağlantısı geçersiz."},
	{account.ErrTokenExpired, "Etkinleştirme bağlantısının süresi dolmuş. Lütfen yeniden kayıt olun."},
	{account.ErrAlreadyActivated, "Hesabınız zaten etkin. Giriş yapabilirsiniz."},
	{generationAdapter.ErrNotConfigured, "Yapay zekâ ile plan oluşturma şu anda kullanılamıyor."},
}

// validationErrors answer 422.
var validationErrors = []error{
	plan.ErrEmptyTitle, plan.ErrEmptyDate, plan.ErrInvalidDate,
	plan.ErrInvalidClassLevel, plan.ErrInvalidSubject, plan.ErrEmptyTopic,
	plan.ErrDurationNotInteger, plan.ErrDurationOutOfRange, plan.ErrUnknownSection,
	generation.ErrEmptyTopic, wizard.ErrStageIncomplete,
	account.ErrEmptyEmail, account.ErrInvalidEmail, account.ErrEmailTooLong,
	account.ErrEmptyPassword, account.ErrPasswordTooShort,
}

// userMessage returns the text shown for err.
func userMessage(err error) string {
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	var rejected *generationAdapter.RejectedError
	if errors.As(err, &rejected) {
		return "Plan oluşturma isteği kabul edilmedi: " + rejected.Error()
	}
	return err.Error()
}

// statusFor picks the response status for an error rendered inline.
// fallback is used for store and transport failures.
func statusFor(err error, fallback int) int {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusUnprocessableEntity
		}
	}
	switch {
	case errors.Is(err, plan.ErrNotFound), errors.Is(err, orchestrators.ErrNotOwner):
		return http.StatusNotFound
	case errors.Is(err, account.ErrNoActiveSession), errors.Is(err, account.ErrSessionExpired),
		errors.Is(err, account.ErrInvalidCredentials), errors.Is(err, account.ErrEmailNotConfirmed):
		return http.StatusUnauthorized
	case errors.Is(err, account.ErrAccountLocked):
		return http.StatusTooManyRequests
	case errors.Is(err, account.ErrEmailTaken), errors.Is(err, wizard.ErrBusy):
		return http.StatusConflict
	}
	return fallback
}
