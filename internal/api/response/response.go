// Package response centraliza a escrita das respostas JSON dos handlers.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"barstock/internal/domain"
	apperror "barstock/internal/errors"
	"barstock/internal/pkg/logger"
	"barstock/internal/pkg/middleware"
)

// Write processa erros de serviço e envia respostas padronizadas ao cliente.
// Com err == nil, data é codificado com successStatus; caso contrário o erro é
// traduzido por apperror.MapToHTTPStatus para o corpo domain.ErrorResponse.
func Write(w http.ResponseWriter, r *http.Request, log logger.Logger, data interface{}, err error, successStatus int) {
	if err == nil {
		// Sucesso
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				log.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	// TRATAMENTO DE ERROS
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		log.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		log.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}

// Claims devolve as claims anexadas pelo middleware de autenticação.
func Claims(r *http.Request) (middleware.UserClaims, error) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok || claims.OrganizationID <= 0 {
		return middleware.UserClaims{}, apperror.NewUnauthorizedError("Contexto de organização ausente.")
	}
	return claims, nil
}

// PathID lê um identificador numérico positivo do path (padrões do ServeMux, e.g. "{id}").
func PathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewValidationError(fmt.Sprintf("Parâmetro '%s' inválido: '%s'.", name, raw))
	}
	return id, nil
}
