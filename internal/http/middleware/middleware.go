// middleware содержит net/http-обёртки API gearguard: восстановление после
// паники, request id, логирование с метриками, дедлайн запроса,
// аутентификацию по access-токену и проверку роли.
package middleware

import (
	"net/http"
)

// Middleware оборачивает http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain собирает обработчик: первый мидлвар в списке выполняется первым.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// responseMeter запоминает первый записанный статус и объём тела ответа.
type responseMeter struct {
	http.ResponseWriter
	status  int
	written int
}

func newResponseMeter(w http.ResponseWriter) *responseMeter {
	return &responseMeter{ResponseWriter: w}
}

func (m *responseMeter) WriteHeader(code int) {
	if m.status == 0 {
		m.status = code
	}
	m.ResponseWriter.WriteHeader(code)
}

func (m *responseMeter) Write(p []byte) (int, error) {
	if m.status == 0 {
		m.status = http.StatusOK
	}

	n, err := m.ResponseWriter.Write(p)
	m.written += n
	return n, err
}

// Unwrap открывает исходный writer для http.ResponseController.
func (m *responseMeter) Unwrap() http.ResponseWriter { return m.ResponseWriter }

// Status возвращает итоговый статус; 200, если обработчик ничего не записал.
func (m *responseMeter) Status() int {
	if m.status == 0 {
		return http.StatusOK
	}
	return m.status
}

// Written - число байт тела ответа.
func (m *responseMeter) Written() int { return m.written }
