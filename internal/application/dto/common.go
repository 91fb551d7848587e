package dto

// ErrorResponse cuerpo de error HTTP. RequestID permite ubicar la petición en los logs del servicio.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}
