package payload

import "github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"

type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type LocationChoicesResponse struct {
	Countries []model.Choice            `json:"countries"`
	Cities    map[string][]model.Choice `json:"cities"`
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}
