package models

// PrincipalKind вид субъекта тарификации.
type PrincipalKind string

const (
	// PrincipalAccount — авторизованный пользователь, ключ квоты — uid учётной записи.
	PrincipalAccount PrincipalKind = "account"
	// PrincipalSession — анонимная сессия, ключ квоты — клиентский идентификатор сессии.
	PrincipalSession PrincipalKind = "session"
)

// Principal субъект тарификации: либо учётная запись, либо анонимная сессия.
// Ровно один вариант активен для каждого запроса.
type Principal struct {
	Kind PrincipalKind
	ID   string
}

// AccountPrincipal возвращает Principal для учётной записи.
func AccountPrincipal(uid string) Principal {
	return Principal{Kind: PrincipalAccount, ID: uid}
}

// SessionPrincipal возвращает Principal для анонимной сессии.
func SessionPrincipal(sessionID string) Principal {
	return Principal{Kind: PrincipalSession, ID: sessionID}
}
