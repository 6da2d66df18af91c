// Package cursor codifica tokens opacos de paginación para recorrer el ledger en orden.
package cursor

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalid el token no se pudo decodificar o no corresponde a la consulta actual.
var ErrInvalid = errors.New("cursor inválido")

// Cursor posición del último elemento entregado: (fecha efectiva, creación, seq).
type Cursor struct {
	EffectiveAt int64  `json:"eff"`
	CreatedAt   int64  `json:"crt"`
	Seq         int64  `json:"seq"`
	FilterHash  string `json:"fh,omitempty"`
}

// New construye el cursor para continuar después de la posición dada.
func New(effectiveAt, createdAt time.Time, seq int64, filter string) Cursor {
	return Cursor{
		EffectiveAt: effectiveAt.UnixNano(),
		CreatedAt:   createdAt.UnixNano(),
		Seq:         seq,
		FilterHash:  HashFilter(filter),
	}
}

// Effective fecha efectiva en UTC.
func (c Cursor) Effective() time.Time { return time.Unix(0, c.EffectiveAt).UTC() }

// Created fecha de creación en UTC.
func (c Cursor) Created() time.Time { return time.Unix(0, c.CreatedAt).UTC() }

// Encode codifica el cursor a base64 URL.
func Encode(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode decodifica el token y verifica que el filtro no haya cambiado.
func Decode(token, filter string) (Cursor, error) {
	if token == "" {
		return Cursor{}, fmt.Errorf("%w: token vacío", ErrInvalid)
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Seq <= 0 {
		return Cursor{}, fmt.Errorf("%w: secuencia inválida", ErrInvalid)
	}
	if c.FilterHash != HashFilter(filter) {
		return Cursor{}, fmt.Errorf("%w: el filtro cambió desde que se creó el cursor", ErrInvalid)
	}
	return c, nil
}

// HashFilter hash corto del filtro; vacío para filtro vacío.
func HashFilter(filter string) string {
	if filter == "" {
		return ""
	}
	h := sha256.Sum256([]byte(filter))
	return hex.EncodeToString(h[:8])
}
