package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/Inventario-reportes/internal/domain"
)

// maxBody límite de lectura por respuesta; un catálogo completo cabe con holgura.
const maxBody = 64 << 20

// Client cliente HTTP del backend transaccional (API REST JSON con Bearer token).
// Usa net/http de la librería estándar; el backend no publica SDK.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient construye el cliente. timeout <= 0 usa 15 s.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ── Estructuras internas del protocolo ───────────────────────────────────────

// envelope respuesta con los datos envueltos: {"data": [...]} o {"success": true, "data": ...}.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// get hace GET path y decodifica el cuerpo en out. Acepta el arreglo/objeto directo o
// envuelto en "data". Cualquier falla se devuelve como domain.ErrDataUnavailable.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: backend: crear request %s: %w", domain.ErrDataUnavailable, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: backend: timeout o cancelación en %s: %w", domain.ErrDataUnavailable, path, ctx.Err())
		}
		return fmt.Errorf("%w: backend: GET %s: %w", domain.ErrDataUnavailable, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%w: backend: leer %s: %w", domain.ErrDataUnavailable, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: backend: GET %s: HTTP %d: %s", domain.ErrDataUnavailable, path, resp.StatusCode, errorText(raw))
	}

	payload := unwrap(raw)
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: backend: deserializar %s: %w", domain.ErrDataUnavailable, path, err)
	}
	return nil
}

// unwrap devuelve el contenido de "data" si la respuesta viene envuelta.
func unwrap(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err == nil && len(env.Data) > 0 {
		return env.Data
	}
	return trimmed
}

func errorText(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Error != "" {
			return env.Error
		}
		if env.Message != "" {
			return env.Message
		}
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "…"
	}
	return s
}
