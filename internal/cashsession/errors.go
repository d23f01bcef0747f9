package cashsession

import "errors"

// Çekirdek hata türleri. Çağıran katman errors.Is ile ayırt eder;
// handler bunları HTTP status koduna çevirir. Hiçbir hata sessizce
// yutulmaz, otomatik retry yoktur.
var (
	ErrValidation   = errors.New("geçersiz girdi")
	ErrNotFound     = errors.New("oturum bulunamadı")
	ErrInvalidState = errors.New("oturum bu işlem için uygun durumda değil")
	ErrPersistence  = errors.New("kayıt işlemi başarısız")
)
