// Package identity определяет субъект учёта для HTTP-запроса: учётную
// запись из проверенного JWT или анонимную сессию из заголовка.
package identity

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/jarrod640-svg/pdfswift/internal/http/middlewarectx"
	"github.com/jarrod640-svg/pdfswift/internal/models"
)

// SessionHeader заголовок с идентификатором анонимной сессии.
const SessionHeader = "X-Session-Id"

// Resolve возвращает субъекта учёта для запроса. Если JWT прошёл проверку,
// субъект — учётная запись. Иначе используется идентификатор сессии из
// заголовка; при его отсутствии генерируется новый и возвращается клиенту
// в том же заголовке ответа.
func Resolve(w http.ResponseWriter, r *http.Request) models.Principal {
	if uid, ok := r.Context().Value(middlewarectx.AccountUID).(string); ok && uid != "" {
		return models.AccountPrincipal(uid)
	}

	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	w.Header().Set(SessionHeader, sessionID)
	return models.SessionPrincipal(sessionID)
}
